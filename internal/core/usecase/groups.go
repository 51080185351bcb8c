package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/facturaflow/validator/internal/core/domain"
	"github.com/facturaflow/validator/internal/core/ports"
)

type GroupUseCase struct {
	groups ports.GroupStore
	docs   ports.DocumentRepository
}

func NewGroupUseCase(groups ports.GroupStore, docs ports.DocumentRepository) *GroupUseCase {
	return &GroupUseCase{groups: groups, docs: docs}
}

func (uc *GroupUseCase) CreateGroup(ctx context.Context, name, primaryID string, relatedIDs []string) (*domain.DocumentGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create group", errors.New("name is required"))
	}
	if err := uc.ensureDocumentExists(ctx, primaryID); err != nil {
		return nil, err
	}
	for _, id := range relatedIDs {
		if id == primaryID {
			return nil, domain.WrapError(domain.ErrInvalidInput, "create group", errors.New("primary document listed as related"))
		}
		if err := uc.ensureDocumentExists(ctx, id); err != nil {
			return nil, err
		}
	}

	group := &domain.DocumentGroup{
		ID:         uuid.NewString(),
		Name:       name,
		PrimaryID:  primaryID,
		RelatedIDs: relatedIDs,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.groups.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return group, nil
}

func (uc *GroupUseCase) AttachDocument(ctx context.Context, groupID, documentID string) error {
	group, err := uc.groups.GetGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("fetch group: %w", err)
	}
	if documentID == group.PrimaryID {
		return domain.WrapError(domain.ErrConflict, "attach document", errors.New("document is the group primary"))
	}
	for _, id := range group.RelatedIDs {
		if id == documentID {
			return domain.WrapError(domain.ErrConflict, "attach document", errors.New("document already in group"))
		}
	}
	if err := uc.ensureDocumentExists(ctx, documentID); err != nil {
		return err
	}
	if err := uc.groups.AttachDocument(ctx, groupID, documentID); err != nil {
		return fmt.Errorf("attach document to group: %w", err)
	}
	return nil
}

func (uc *GroupUseCase) GetGroup(ctx context.Context, id string) (*domain.DocumentGroup, error) {
	group, err := uc.groups.GetGroup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch group: %w", err)
	}
	return group, nil
}

func (uc *GroupUseCase) ensureDocumentExists(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "resolve document", errors.New("document id is required"))
	}
	if _, err := uc.docs.GetByID(ctx, id); err != nil {
		return fmt.Errorf("resolve document %s: %w", id, err)
	}
	return nil
}
