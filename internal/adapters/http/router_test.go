package httpadapter

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/facturaflow/validator/internal/config"
	"github.com/facturaflow/validator/internal/core/domain"
	"github.com/facturaflow/validator/internal/core/validation"
)

type ingestFake struct {
	err error
}

func (f ingestFake) Upload(_ context.Context, filename, mimeType string, kind domain.DocumentKind, body io.Reader) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", io.EOF)
	}

	now := time.Now().UTC()
	return &domain.Document{
		ID:          "doc-1",
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: "doc-1_" + filename,
		Kind:        kind,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type readerFake struct {
	doc   *domain.Document
	items []domain.LineItem
	err   error
}

func (f readerFake) GetByID(context.Context, string) (*domain.Document, error) {
	return f.doc, f.err
}

func (f readerFake) ListItems(context.Context, string) ([]domain.LineItem, error) {
	return f.items, f.err
}

type groupsFake struct {
	group *domain.DocumentGroup
	err   error
}

func (f groupsFake) CreateGroup(context.Context, string, string, []string) (*domain.DocumentGroup, error) {
	return f.group, f.err
}

func (f groupsFake) AttachDocument(context.Context, string, string) error {
	return f.err
}

func (f groupsFake) GetGroup(context.Context, string) (*domain.DocumentGroup, error) {
	return f.group, f.err
}

type validationsFake struct {
	run *domain.ValidationRun
	err error
}

func (f validationsFake) StartRun(context.Context, string) (*domain.ValidationRun, error) {
	return f.run, f.err
}

func (f validationsFake) GetRun(context.Context, string) (*domain.ValidationRun, error) {
	return f.run, f.err
}

func (f validationsFake) PushRun(context.Context, string) (*domain.ValidationRun, error) {
	return f.run, f.err
}

func (f validationsFake) ValidateDirect(_ context.Context, input validation.RunInput) (domain.ValidationResult, error) {
	if f.err != nil {
		return domain.ValidationResult{}, f.err
	}
	return validation.Run(input, validation.Policy{}), nil
}

func newTestHandler(cfg config.Config) http.Handler {
	now := time.Now().UTC()
	return NewRouter(
		cfg,
		ingestFake{},
		readerFake{doc: &domain.Document{ID: "doc-1", Status: domain.StatusParsed, CreatedAt: now, UpdatedAt: now}},
		groupsFake{group: &domain.DocumentGroup{ID: "grp-1", Name: "order 77", PrimaryID: "doc-1", CreatedAt: now}},
		validationsFake{run: &domain.ValidationRun{ID: "run-1", GroupID: "grp-1", Status: domain.RunPending, CreatedAt: now, UpdatedAt: now}},
	).Handler()
}
