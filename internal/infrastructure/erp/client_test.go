package erp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/facturaflow/validator/internal/core/domain"
)

func completedRun() *domain.ValidationRun {
	return &domain.ValidationRun{
		ID:      "run-1",
		GroupID: "g-1",
		Status:  domain.RunCompleted,
		Result: &domain.ValidationResult{
			Status: domain.ValidationSuccess,
			Score:  100,
		},
	}
}

func TestPushResultSendsPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload pushPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := New(server.URL, "secret-key", Options{})
	if err := client.PushResult(context.Background(), completedRun()); err != nil {
		t.Fatalf("PushResult() error = %v", err)
	}

	if gotPath != "/api/v1/validation-results" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotAuth != "Bearer secret-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotPayload.RunID != "run-1" || gotPayload.GroupID != "g-1" {
		t.Fatalf("unexpected payload %+v", gotPayload)
	}
	if gotPayload.Result == nil || gotPayload.Result.Score != 100 {
		t.Fatalf("expected result in payload, got %+v", gotPayload.Result)
	}
}

func TestPushResultServerErrorIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance window", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "", Options{})
	err := client.PushResult(context.Background(), completedRun())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

func TestPushResultClientErrorIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unknown group", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := New(server.URL, "", Options{})
	err := client.PushResult(context.Background(), completedRun())
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}
