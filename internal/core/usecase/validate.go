package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/facturaflow/validator/internal/core/domain"
	"github.com/facturaflow/validator/internal/core/ports"
	"github.com/facturaflow/validator/internal/core/validation"
)

type ValidateGroupUseCase struct {
	runs   ports.RunRepository
	groups ports.GroupStore
	docs   ports.DocumentRepository
	items  ports.LineItemRepository
	queue  ports.MessageQueue
	erp    ports.ERPPublisher
	policy validation.Policy
}

func NewValidateGroupUseCase(
	runs ports.RunRepository,
	groups ports.GroupStore,
	docs ports.DocumentRepository,
	items ports.LineItemRepository,
	queue ports.MessageQueue,
	erp ports.ERPPublisher,
	policy validation.Policy,
) *ValidateGroupUseCase {
	return &ValidateGroupUseCase{
		runs:   runs,
		groups: groups,
		docs:   docs,
		items:  items,
		queue:  queue,
		erp:    erp,
		policy: policy,
	}
}

// StartRun records a pending run for the group and hands it to the
// worker via the queue.
func (uc *ValidateGroupUseCase) StartRun(ctx context.Context, groupID string) (*domain.ValidationRun, error) {
	group, err := uc.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("fetch group: %w", err)
	}
	if len(group.RelatedIDs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start run", errors.New("group has no related documents"))
	}

	now := time.Now().UTC()
	run := &domain.ValidationRun{
		ID:        uuid.NewString(),
		GroupID:   group.ID,
		Status:    domain.RunPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	if err := uc.queue.PublishGroupValidate(ctx, run.ID); err != nil {
		return nil, fmt.Errorf("publish validate event: %w", err)
	}
	return run, nil
}

// ExecuteRun is the worker side of StartRun.
func (uc *ValidateGroupUseCase) ExecuteRun(ctx context.Context, runID string) error {
	run, err := uc.runs.GetByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("fetch run by id: %w", err)
	}
	if err := uc.runs.SetStatus(ctx, run.ID, domain.RunRunning, ""); err != nil {
		return fmt.Errorf("set status=running: %w", err)
	}

	result, err := uc.validateGroup(ctx, run.GroupID)
	if err != nil {
		if failErr := uc.runs.SetStatus(ctx, run.ID, domain.RunFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.runs.SaveResult(ctx, run.ID, domain.RunCompleted, &result); err != nil {
		return fmt.Errorf("save run result: %w", err)
	}
	return nil
}

func (uc *ValidateGroupUseCase) GetRun(ctx context.Context, id string) (*domain.ValidationRun, error) {
	run, err := uc.runs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch run by id: %w", err)
	}
	return run, nil
}

// ValidateDirect compares raw item sets synchronously without touching
// storage or the queue.
func (uc *ValidateGroupUseCase) ValidateDirect(_ context.Context, input validation.RunInput) (domain.ValidationResult, error) {
	if len(input.PrimaryItems) == 0 {
		return domain.ValidationResult{}, domain.WrapError(domain.ErrInvalidInput, "validate direct", errors.New("primary items are required"))
	}
	if len(input.RelatedSets) == 0 {
		return domain.ValidationResult{}, domain.WrapError(domain.ErrInvalidInput, "validate direct", errors.New("at least one related set is required"))
	}
	return validation.Run(input, uc.policy), nil
}

func (uc *ValidateGroupUseCase) validateGroup(ctx context.Context, groupID string) (domain.ValidationResult, error) {
	group, err := uc.groups.GetGroup(ctx, groupID)
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("fetch group: %w", err)
	}

	primary, err := uc.loadParsedItems(ctx, group.PrimaryID)
	if err != nil {
		return domain.ValidationResult{}, err
	}

	sets := make([]validation.ItemSet, 0, len(group.RelatedIDs))
	for _, id := range group.RelatedIDs {
		items, err := uc.loadParsedItems(ctx, id)
		if err != nil {
			return domain.ValidationResult{}, err
		}
		sets = append(sets, validation.ItemSet{DocumentID: id, Items: items})
	}

	return validation.RunItems(primary, sets, uc.policy), nil
}

func (uc *ValidateGroupUseCase) loadParsedItems(ctx context.Context, documentID string) ([]domain.LineItem, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document %s: %w", documentID, err)
	}
	if doc.Status != domain.StatusParsed {
		return nil, domain.WrapError(
			domain.ErrConflict,
			"load parsed items",
			fmt.Errorf("document %s has status %s", documentID, doc.Status),
		)
	}
	items, err := uc.items.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list items of %s: %w", documentID, err)
	}
	return items, nil
}
