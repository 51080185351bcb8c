package httpadapter

import (
	"context"
	"net/http"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

// The routes served by the router, as they appear in the API document.
var documentedRoutes = []struct {
	method string
	path   string
}{
	{http.MethodGet, "/healthz"},
	{http.MethodPost, "/v1/documents"},
	{http.MethodGet, "/v1/documents/{document_id}"},
	{http.MethodGet, "/v1/documents/{document_id}/items"},
	{http.MethodPost, "/v1/groups"},
	{http.MethodGet, "/v1/groups/{group_id}"},
	{http.MethodPost, "/v1/groups/{group_id}/documents"},
	{http.MethodPost, "/v1/groups/{group_id}/validate"},
	{http.MethodGet, "/v1/runs/{run_id}"},
	{http.MethodPost, "/v1/runs/{run_id}/push"},
	{http.MethodPost, "/v1/validate"},
}

func loadAPIDocument(t *testing.T) *openapi3.T {
	t.Helper()

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../../api/openapi.yaml")
	if err != nil {
		t.Fatalf("load openapi document: %v", err)
	}
	return doc
}

func TestOpenAPIDocumentIsValid(t *testing.T) {
	doc := loadAPIDocument(t)
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("openapi document is invalid: %v", err)
	}
}

func TestOpenAPIDocumentCoversAllRoutes(t *testing.T) {
	doc := loadAPIDocument(t)

	for _, route := range documentedRoutes {
		pathItem := doc.Paths.Find(route.path)
		if pathItem == nil {
			t.Errorf("path %s is not documented", route.path)
			continue
		}
		if pathItem.GetOperation(route.method) == nil {
			t.Errorf("operation %s %s is not documented", route.method, route.path)
		}
	}

	if got := doc.Paths.Len(); got != len(documentedRoutes) {
		t.Errorf("document describes %d paths, router serves %d", got, len(documentedRoutes))
	}
}
