package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/facturaflow/validator/internal/core/domain"
)

type groupStoreFake struct {
	groups map[string]*domain.DocumentGroup
	err    error
}

func newGroupStoreFake() *groupStoreFake {
	return &groupStoreFake{groups: map[string]*domain.DocumentGroup{}}
}

func (f *groupStoreFake) CreateGroup(_ context.Context, group *domain.DocumentGroup) error {
	if f.err != nil {
		return f.err
	}
	copyGroup := *group
	f.groups[group.ID] = &copyGroup
	return nil
}

func (f *groupStoreFake) AttachDocument(_ context.Context, groupID, documentID string) error {
	if f.err != nil {
		return f.err
	}
	group, ok := f.groups[groupID]
	if !ok {
		return domain.WrapError(domain.ErrGroupNotFound, "attach document", errors.New(groupID))
	}
	group.RelatedIDs = append(group.RelatedIDs, documentID)
	return nil
}

func (f *groupStoreFake) GetGroup(_ context.Context, id string) (*domain.DocumentGroup, error) {
	group, ok := f.groups[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrGroupNotFound, "get group", errors.New(id))
	}
	copyGroup := *group
	return &copyGroup, nil
}

type docLookupFake struct {
	known map[string]domain.DocumentStatus
}

func (f *docLookupFake) Create(context.Context, *domain.Document) error {
	return errors.New("not implemented")
}

func (f *docLookupFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	status, ok := f.known[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
	}
	return &domain.Document{ID: id, Status: status}, nil
}

func (f *docLookupFake) UpdateStatus(context.Context, string, domain.DocumentStatus, string) error {
	return errors.New("not implemented")
}
func (f *docLookupFake) MarkParsed(context.Context, string, int) error {
	return errors.New("not implemented")
}

func TestCreateGroupSuccess(t *testing.T) {
	store := newGroupStoreFake()
	docs := &docLookupFake{known: map[string]domain.DocumentStatus{
		"inv-1": domain.StatusParsed,
		"rem-1": domain.StatusParsed,
	}}
	uc := NewGroupUseCase(store, docs)

	group, err := uc.CreateGroup(context.Background(), "Pedido 442", "inv-1", []string{"rem-1"})
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if group.ID == "" {
		t.Fatalf("expected group id")
	}
	if store.groups[group.ID] == nil {
		t.Fatalf("expected group persisted")
	}
}

func TestCreateGroupUnknownDocument(t *testing.T) {
	uc := NewGroupUseCase(newGroupStoreFake(), &docLookupFake{known: map[string]domain.DocumentStatus{}})

	_, err := uc.CreateGroup(context.Background(), "Pedido", "inv-missing", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestCreateGroupPrimaryListedAsRelated(t *testing.T) {
	docs := &docLookupFake{known: map[string]domain.DocumentStatus{"inv-1": domain.StatusParsed}}
	uc := NewGroupUseCase(newGroupStoreFake(), docs)

	_, err := uc.CreateGroup(context.Background(), "Pedido", "inv-1", []string{"inv-1"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAttachDocumentRejectsDuplicates(t *testing.T) {
	store := newGroupStoreFake()
	store.groups["g-1"] = &domain.DocumentGroup{
		ID:         "g-1",
		PrimaryID:  "inv-1",
		RelatedIDs: []string{"rem-1"},
	}
	docs := &docLookupFake{known: map[string]domain.DocumentStatus{
		"inv-1": domain.StatusParsed,
		"rem-1": domain.StatusParsed,
		"rem-2": domain.StatusParsed,
	}}
	uc := NewGroupUseCase(store, docs)

	if err := uc.AttachDocument(context.Background(), "g-1", "rem-1"); !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate, got %v", err)
	}
	if err := uc.AttachDocument(context.Background(), "g-1", "inv-1"); !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for primary, got %v", err)
	}
	if err := uc.AttachDocument(context.Background(), "g-1", "rem-2"); err != nil {
		t.Fatalf("AttachDocument() error = %v", err)
	}
	if got := store.groups["g-1"].RelatedIDs; len(got) != 2 || got[1] != "rem-2" {
		t.Fatalf("expected rem-2 attached, got %v", got)
	}
}
