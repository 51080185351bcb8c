package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/facturaflow/validator/internal/core/domain"
	"github.com/facturaflow/validator/internal/core/ports"
	"github.com/facturaflow/validator/internal/core/validation"
)

type ParseDocumentUseCase struct {
	repo      ports.DocumentRepository
	items     ports.LineItemRepository
	storage   ports.ObjectStorage
	extractor ports.LineItemExtractor
}

func NewParseDocumentUseCase(
	repo ports.DocumentRepository,
	items ports.LineItemRepository,
	storage ports.ObjectStorage,
	extractor ports.LineItemExtractor,
) *ParseDocumentUseCase {
	return &ParseDocumentUseCase{
		repo:      repo,
		items:     items,
		storage:   storage,
		extractor: extractor,
	}
}

func (uc *ParseDocumentUseCase) ParseByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusParsing, ""); err != nil {
		return fmt.Errorf("set status=parsing: %w", err)
	}

	count, err := uc.parsePipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.MarkParsed(ctx, documentID, count); err != nil {
		return fmt.Errorf("set status=parsed: %w", err)
	}
	return nil
}

func (uc *ParseDocumentUseCase) parsePipeline(ctx context.Context, documentID string) (int, error) {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	raw, err := uc.extractItems(ctx, doc)
	if err != nil {
		return 0, err
	}

	items, err := uc.normalizeItems(doc.ID, raw)
	if err != nil {
		return 0, err
	}

	if err := uc.items.ReplaceForDocument(ctx, doc.ID, items); err != nil {
		return 0, fmt.Errorf("persist line items: %w", err)
	}
	return len(items), nil
}

func (uc *ParseDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *ParseDocumentUseCase) extractItems(ctx context.Context, doc *domain.Document) ([]domain.RawLineItem, error) {
	body, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open stored document: %w", err)
	}
	defer body.Close()

	raw, err := uc.extractor.Extract(ctx, doc.MimeType, body)
	if err != nil {
		return nil, fmt.Errorf("extract line items: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract line items", errors.New("no line items found"))
	}
	return raw, nil
}

// normalizeItems canonicalizes leniently: individual malformed lines are
// dropped, a document with zero usable lines fails the parse.
func (uc *ParseDocumentUseCase) normalizeItems(documentID string, raw []domain.RawLineItem) ([]domain.LineItem, error) {
	items, skipped := validation.NormalizeLenient(documentID, raw)
	if len(items) == 0 {
		return nil, domain.WrapError(
			domain.ErrInvalidLineItem,
			"normalize line items",
			fmt.Errorf("all %d extracted lines malformed: %v", len(raw), errors.Join(skipped...)),
		)
	}
	return items, nil
}

func (uc *ParseDocumentUseCase) markFailed(ctx context.Context, documentID string, parseErr error) error {
	if parseErr == nil {
		return nil
	}
	return uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, parseErr.Error())
}
