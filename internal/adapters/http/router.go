package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/facturaflow/validator/internal/config"
	"github.com/facturaflow/validator/internal/core/domain"
	"github.com/facturaflow/validator/internal/core/ports"
	"github.com/facturaflow/validator/internal/core/validation"
	"github.com/facturaflow/validator/internal/observability/metrics"
)

const serviceName = "api"

// backpressureWaitTimeout bounds how long a request may queue for an
// in-flight slot before the server sheds it.
const backpressureWaitTimeout = 500 * time.Millisecond

type Router struct {
	cfg         config.Config
	ingest      ports.DocumentIngestor
	reader      ports.DocumentReader
	groups      ports.GroupService
	validations ports.ValidationService
	metrics     *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	ingest ports.DocumentIngestor,
	reader ports.DocumentReader,
	groups ports.GroupService,
	validations ports.ValidationService,
) *Router {
	return &Router{
		cfg:         cfg,
		ingest:      ingest,
		reader:      reader,
		groups:      groups,
		validations: validations,
	}
}

// WithMetrics attaches the Prometheus instruments and enables /metrics.
func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/documents", rt.uploadDocument)
	mux.HandleFunc("GET /v1/documents/{document_id}", rt.getDocument)
	mux.HandleFunc("GET /v1/documents/{document_id}/items", rt.listDocumentItems)
	mux.HandleFunc("POST /v1/groups", rt.createGroup)
	mux.HandleFunc("GET /v1/groups/{group_id}", rt.getGroup)
	mux.HandleFunc("POST /v1/groups/{group_id}/documents", rt.attachDocument)
	mux.HandleFunc("POST /v1/groups/{group_id}/validate", rt.startValidation)
	mux.HandleFunc("GET /v1/runs/{run_id}", rt.getRun)
	mux.HandleFunc("POST /v1/runs/{run_id}/push", rt.pushRun)
	mux.HandleFunc("POST /v1/validate", rt.validateDirect)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, backpressureWaitTimeout)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.cfg.APIRetryAfterSecond)
	handler = apiKeyMiddleware(handler, rt.cfg.APIKey)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	kind := domain.ParseDocumentKind(r.FormValue("kind"))
	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		kind,
		file,
	)
	if err != nil {
		respondError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordDocumentUpload(serviceName, string(doc.Kind))
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.reader.GetByID(r.Context(), r.PathValue("document_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) listDocumentItems(w http.ResponseWriter, r *http.Request) {
	items, err := rt.reader.ListItems(r.Context(), r.PathValue("document_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (rt *Router) createGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name               string   `json:"name"`
		PrimaryDocumentID  string   `json:"primary_document_id"`
		RelatedDocumentIDs []string `json:"related_document_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	group, err := rt.groups.CreateGroup(r.Context(), req.Name, req.PrimaryDocumentID, req.RelatedDocumentIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (rt *Router) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := rt.groups.GetGroup(r.Context(), r.PathValue("group_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (rt *Router) attachDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID string `json:"document_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.DocumentID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document_id is required"})
		return
	}

	if err := rt.groups.AttachDocument(r.Context(), r.PathValue("group_id"), req.DocumentID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) startValidation(w http.ResponseWriter, r *http.Request) {
	run, err := rt.validations.StartRun(r.Context(), r.PathValue("group_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, run)
}

func (rt *Router) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := rt.validations.GetRun(r.Context(), r.PathValue("run_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (rt *Router) pushRun(w http.ResponseWriter, r *http.Request) {
	run, err := rt.validations.PushRun(r.Context(), r.PathValue("run_id"))
	if rt.metrics != nil {
		rt.metrics.RecordERPPush(serviceName, err)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type validateDocumentPayload struct {
	DocumentID string               `json:"document_id"`
	Items      []domain.RawLineItem `json:"items"`
}

type validateRequest struct {
	Primary validateDocumentPayload   `json:"primary"`
	Related []validateDocumentPayload `json:"related"`
}

// validateDirect compares raw line items synchronously, without
// uploading documents or creating a group first.
func (rt *Router) validateDirect(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	input := validation.RunInput{
		PrimaryDocumentID: req.Primary.DocumentID,
		PrimaryItems:      req.Primary.Items,
	}
	for _, related := range req.Related {
		input.RelatedSets = append(input.RelatedSets, validation.RelatedSet{
			DocumentID: related.DocumentID,
			Items:      related.Items,
		})
	}

	start := time.Now()
	result, err := rt.validations.ValidateDirect(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordValidation(serviceName, string(result.Status), result.Score, severityCounts(result.Findings), time.Since(start))
	}
	writeJSON(w, http.StatusOK, result)
}

func severityCounts(findings []domain.Finding) map[string]int {
	counts := make(map[string]int, 3)
	for _, finding := range findings {
		counts[string(finding.Severity)]++
	}
	return counts
}

func respondError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
