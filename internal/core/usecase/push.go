package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facturaflow/validator/internal/core/domain"
)

// PushRun delivers a completed run to the ERP. Runs that finished with
// error status are not pushable; the discrepancies have to be resolved
// upstream first.
func (uc *ValidateGroupUseCase) PushRun(ctx context.Context, id string) (*domain.ValidationRun, error) {
	run, err := uc.runs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch run by id: %w", err)
	}
	if run.Status != domain.RunCompleted || run.Result == nil {
		return nil, domain.WrapError(domain.ErrConflict, "push run", fmt.Errorf("run has status %s", run.Status))
	}
	if run.Result.Status == domain.ValidationError {
		return nil, domain.WrapError(domain.ErrConflict, "push run", errors.New("run finished with validation errors"))
	}
	if run.PushedAt != nil {
		return nil, domain.WrapError(domain.ErrConflict, "push run", errors.New("run already pushed"))
	}

	if err := uc.erp.PushResult(ctx, run); err != nil {
		return nil, fmt.Errorf("push result to erp: %w", err)
	}

	now := time.Now().UTC()
	if err := uc.runs.MarkPushed(ctx, run.ID, now); err != nil {
		return nil, fmt.Errorf("mark run pushed: %w", err)
	}
	run.PushedAt = &now
	run.UpdatedAt = now
	return run, nil
}
