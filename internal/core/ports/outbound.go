package ports

import (
	"context"
	"io"
	"time"

	"github.com/facturaflow/validator/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	MarkParsed(ctx context.Context, id string, itemCount int) error
}

// LineItemRepository persists the canonical line items of a parsed
// document.
type LineItemRepository interface {
	ReplaceForDocument(ctx context.Context, documentID string, items []domain.LineItem) error
	ListByDocument(ctx context.Context, documentID string) ([]domain.LineItem, error)
}

// RunRepository persists validation runs and their results.
type RunRepository interface {
	Create(ctx context.Context, run *domain.ValidationRun) error
	GetByID(ctx context.Context, id string) (*domain.ValidationRun, error)
	SetStatus(ctx context.Context, id string, status domain.RunStatus, errMessage string) error
	SaveResult(ctx context.Context, id string, status domain.RunStatus, result *domain.ValidationResult) error
	MarkPushed(ctx context.Context, id string, at time.Time) error
}

// GroupStore persists document groups and their membership links.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *domain.DocumentGroup) error
	AttachDocument(ctx context.Context, groupID, documentID string) error
	GetGroup(ctx context.Context, id string) (*domain.DocumentGroup, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes parse and validation events.
type MessageQueue interface {
	PublishDocumentParse(ctx context.Context, documentID string) error
	PublishGroupValidate(ctx context.Context, runID string) error
	SubscribeDocumentParse(ctx context.Context, handler func(context.Context, string) error) error
	SubscribeGroupValidate(ctx context.Context, handler func(context.Context, string) error) error
}

// LineItemExtractor pulls raw line items out of a stored document.
type LineItemExtractor interface {
	Extract(ctx context.Context, mimeType string, r io.Reader) ([]domain.RawLineItem, error)
}

// ERPPublisher delivers a completed run's result to the downstream ERP.
type ERPPublisher interface {
	PushResult(ctx context.Context, run *domain.ValidationRun) error
}
