package ports

import (
	"context"
	"io"

	"github.com/facturaflow/validator/internal/core/domain"
	"github.com/facturaflow/validator/internal/core/validation"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, kind domain.DocumentKind, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata and items.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListItems(ctx context.Context, documentID string) ([]domain.LineItem, error)
}

// GroupService manages document groups.
type GroupService interface {
	CreateGroup(ctx context.Context, name, primaryID string, relatedIDs []string) (*domain.DocumentGroup, error)
	AttachDocument(ctx context.Context, groupID, documentID string) error
	GetGroup(ctx context.Context, id string) (*domain.DocumentGroup, error)
}

// ValidationService runs and reads group validations.
type ValidationService interface {
	StartRun(ctx context.Context, groupID string) (*domain.ValidationRun, error)
	GetRun(ctx context.Context, id string) (*domain.ValidationRun, error)
	PushRun(ctx context.Context, id string) (*domain.ValidationRun, error)
	ValidateDirect(ctx context.Context, input validation.RunInput) (domain.ValidationResult, error)
}

// DocumentParseProcessor is the inbound contract for asynchronous parsing.
type DocumentParseProcessor interface {
	ParseByID(ctx context.Context, documentID string) error
}

// RunProcessor is the inbound contract for asynchronous run execution.
type RunProcessor interface {
	ExecuteRun(ctx context.Context, runID string) error
}
