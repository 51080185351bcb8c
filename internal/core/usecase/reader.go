package usecase

import (
	"context"
	"fmt"

	"github.com/facturaflow/validator/internal/core/domain"
	"github.com/facturaflow/validator/internal/core/ports"
)

type DocumentReadUseCase struct {
	repo  ports.DocumentRepository
	items ports.LineItemRepository
}

func NewDocumentReadUseCase(repo ports.DocumentRepository, items ports.LineItemRepository) *DocumentReadUseCase {
	return &DocumentReadUseCase{repo: repo, items: items}
}

func (uc *DocumentReadUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *DocumentReadUseCase) ListItems(ctx context.Context, documentID string) ([]domain.LineItem, error) {
	if _, err := uc.repo.GetByID(ctx, documentID); err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	items, err := uc.items.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list items of %s: %w", documentID, err)
	}
	return items, nil
}
