package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/facturaflow/validator/internal/core/domain"
	"github.com/facturaflow/validator/internal/core/validation"
)

type runRepoFake struct {
	runs      map[string]*domain.ValidationRun
	createErr error
}

func newRunRepoFake() *runRepoFake {
	return &runRepoFake{runs: map[string]*domain.ValidationRun{}}
}

func (f *runRepoFake) Create(_ context.Context, run *domain.ValidationRun) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyRun := *run
	f.runs[run.ID] = &copyRun
	return nil
}

func (f *runRepoFake) GetByID(_ context.Context, id string) (*domain.ValidationRun, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrRunNotFound, "get run", errors.New(id))
	}
	copyRun := *run
	return &copyRun, nil
}

func (f *runRepoFake) SetStatus(_ context.Context, id string, status domain.RunStatus, errMessage string) error {
	run, ok := f.runs[id]
	if !ok {
		return domain.WrapError(domain.ErrRunNotFound, "set status", errors.New(id))
	}
	run.Status = status
	run.Error = errMessage
	return nil
}

func (f *runRepoFake) SaveResult(_ context.Context, id string, status domain.RunStatus, result *domain.ValidationResult) error {
	run, ok := f.runs[id]
	if !ok {
		return domain.WrapError(domain.ErrRunNotFound, "save result", errors.New(id))
	}
	run.Status = status
	run.Result = result
	return nil
}

func (f *runRepoFake) MarkPushed(_ context.Context, id string, at time.Time) error {
	run, ok := f.runs[id]
	if !ok {
		return domain.WrapError(domain.ErrRunNotFound, "mark pushed", errors.New(id))
	}
	run.PushedAt = &at
	return nil
}

type itemListFake struct {
	byDocument map[string][]domain.LineItem
}

func (f *itemListFake) ReplaceForDocument(context.Context, string, []domain.LineItem) error {
	return errors.New("not implemented")
}

func (f *itemListFake) ListByDocument(_ context.Context, documentID string) ([]domain.LineItem, error) {
	return f.byDocument[documentID], nil
}

type validateQueueFake struct {
	runIDs []string
	err    error
}

func (f *validateQueueFake) PublishDocumentParse(context.Context, string) error {
	return errors.New("not implemented")
}

func (f *validateQueueFake) PublishGroupValidate(_ context.Context, runID string) error {
	if f.err != nil {
		return f.err
	}
	f.runIDs = append(f.runIDs, runID)
	return nil
}

func (f *validateQueueFake) SubscribeDocumentParse(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}
func (f *validateQueueFake) SubscribeGroupValidate(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type erpFake struct {
	pushed []string
	err    error
}

func (f *erpFake) PushResult(_ context.Context, run *domain.ValidationRun) error {
	if f.err != nil {
		return f.err
	}
	f.pushed = append(f.pushed, run.ID)
	return nil
}

func validItems(t *testing.T, documentID string, raw []domain.RawLineItem) []domain.LineItem {
	t.Helper()
	items, err := validation.Normalize(documentID, raw)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	return items
}

func rawLine(code, description, quantity string) domain.RawLineItem {
	return domain.RawLineItem{
		Code:        code,
		Description: description,
		Quantity:    domain.RawNumber(quantity),
	}
}

func validateFixture(t *testing.T) (*ValidateGroupUseCase, *runRepoFake, *groupStoreFake, *validateQueueFake, *erpFake) {
	t.Helper()
	runs := newRunRepoFake()
	groups := newGroupStoreFake()
	groups.groups["g-1"] = &domain.DocumentGroup{
		ID:         "g-1",
		Name:       "Pedido 442",
		PrimaryID:  "inv-1",
		RelatedIDs: []string{"rem-1"},
	}
	docs := &docLookupFake{known: map[string]domain.DocumentStatus{
		"inv-1": domain.StatusParsed,
		"rem-1": domain.StatusParsed,
	}}
	items := &itemListFake{byDocument: map[string][]domain.LineItem{
		"inv-1": validItems(t, "inv-1", []domain.RawLineItem{rawLine("A-1", "Tornillos", "500")}),
		"rem-1": validItems(t, "rem-1", []domain.RawLineItem{rawLine("A-1", "Tornillos", "500")}),
	}}
	queue := &validateQueueFake{}
	erp := &erpFake{}
	uc := NewValidateGroupUseCase(runs, groups, docs, items, queue, erp, validation.DefaultPolicy())
	return uc, runs, groups, queue, erp
}

func TestStartRunPublishesEvent(t *testing.T) {
	uc, runs, _, queue, _ := validateFixture(t)

	run, err := uc.StartRun(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if run.Status != domain.RunPending {
		t.Fatalf("expected pending run, got %s", run.Status)
	}
	if runs.runs[run.ID] == nil {
		t.Fatalf("expected run persisted")
	}
	if len(queue.runIDs) != 1 || queue.runIDs[0] != run.ID {
		t.Fatalf("expected run queued, got %v", queue.runIDs)
	}
}

func TestStartRunWithoutRelatedDocuments(t *testing.T) {
	uc, _, groups, _, _ := validateFixture(t)
	groups.groups["g-1"].RelatedIDs = nil

	_, err := uc.StartRun(context.Background(), "g-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestExecuteRunCompletes(t *testing.T) {
	uc, runs, _, _, _ := validateFixture(t)
	run, err := uc.StartRun(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	if err := uc.ExecuteRun(context.Background(), run.ID); err != nil {
		t.Fatalf("ExecuteRun() error = %v", err)
	}

	stored := runs.runs[run.ID]
	if stored.Status != domain.RunCompleted {
		t.Fatalf("expected completed run, got %s", stored.Status)
	}
	if stored.Result == nil || stored.Result.Status != domain.ValidationSuccess {
		t.Fatalf("expected success result, got %+v", stored.Result)
	}
	if stored.Result.Score != 100 {
		t.Fatalf("expected score 100, got %d", stored.Result.Score)
	}
}

func TestExecuteRunUnparsedDocumentFails(t *testing.T) {
	uc, runs, _, _, _ := validateFixture(t)
	run, err := uc.StartRun(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	// Related document regresses before the worker picks up the run.
	uc.docs.(*docLookupFake).known["rem-1"] = domain.StatusParsing

	execErr := uc.ExecuteRun(context.Background(), run.ID)
	if !domain.IsKind(execErr, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", execErr)
	}
	if runs.runs[run.ID].Status != domain.RunFailed {
		t.Fatalf("expected failed run, got %s", runs.runs[run.ID].Status)
	}
	if runs.runs[run.ID].Error == "" {
		t.Fatalf("expected recorded failure message")
	}
}

func TestValidateDirect(t *testing.T) {
	uc, _, _, _, _ := validateFixture(t)

	result, err := uc.ValidateDirect(context.Background(), validation.RunInput{
		PrimaryDocumentID: "adhoc-primary",
		PrimaryItems:      []domain.RawLineItem{rawLine("A", "caja", "2")},
		RelatedSets: []validation.RelatedSet{
			{DocumentID: "adhoc-related", Items: []domain.RawLineItem{rawLine("A", "caja", "2")}},
		},
	})
	if err != nil {
		t.Fatalf("ValidateDirect() error = %v", err)
	}
	if result.Status != domain.ValidationSuccess {
		t.Fatalf("expected success, got %s", result.Status)
	}

	if _, err := uc.ValidateDirect(context.Background(), validation.RunInput{}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty input, got %v", err)
	}
}

func TestPushRun(t *testing.T) {
	uc, _, _, _, erp := validateFixture(t)
	run, err := uc.StartRun(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	// Pending runs are not pushable.
	if _, err := uc.PushRun(context.Background(), run.ID); !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for pending run, got %v", err)
	}

	if err := uc.ExecuteRun(context.Background(), run.ID); err != nil {
		t.Fatalf("ExecuteRun() error = %v", err)
	}

	pushed, err := uc.PushRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("PushRun() error = %v", err)
	}
	if pushed.PushedAt == nil {
		t.Fatalf("expected pushed timestamp")
	}
	if len(erp.pushed) != 1 || erp.pushed[0] != run.ID {
		t.Fatalf("expected erp push, got %v", erp.pushed)
	}

	// Second push is rejected.
	if _, err := uc.PushRun(context.Background(), run.ID); !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for repeated push, got %v", err)
	}
}

func TestPushRunRejectsErrorResult(t *testing.T) {
	uc, runs, _, _, erp := validateFixture(t)
	run := &domain.ValidationRun{
		ID:      "run-err",
		GroupID: "g-1",
		Status:  domain.RunCompleted,
		Result:  &domain.ValidationResult{Status: domain.ValidationError},
	}
	runs.runs[run.ID] = run

	_, err := uc.PushRun(context.Background(), run.ID)
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(erp.pushed) != 0 {
		t.Fatalf("expected no erp push, got %v", erp.pushed)
	}
}
