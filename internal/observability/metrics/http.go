package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	documentsUploadedTotal *prometheus.CounterVec
	validationRunsTotal    *prometheus.CounterVec
	validationFindings     *prometheus.CounterVec
	validationScore        *prometheus.HistogramVec
	validationDuration     *prometheus.HistogramVec
	erpPushTotal           *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ffv",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ffv",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ffv",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	documentsUploadedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ffv",
			Subsystem: "documents",
			Name:      "uploaded_total",
			Help:      "Total uploaded documents by kind.",
		},
		[]string{"service", "kind"},
	)
	validationRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ffv",
			Subsystem: "validation",
			Name:      "runs_total",
			Help:      "Total finished validations by result status.",
		},
		[]string{"service", "status"},
	)
	validationFindings := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ffv",
			Subsystem: "validation",
			Name:      "findings_total",
			Help:      "Total emitted findings by severity.",
		},
		[]string{"service", "severity"},
	)
	validationScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ffv",
			Subsystem: "validation",
			Name:      "score",
			Help:      "Distribution of consistency scores.",
			Buckets:   []float64{0, 10, 25, 50, 70, 80, 90, 95, 100},
		},
		[]string{"service"},
	)
	validationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ffv",
			Subsystem: "validation",
			Name:      "duration_seconds",
			Help:      "Validation execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	erpPushTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ffv",
			Subsystem: "erp",
			Name:      "push_total",
			Help:      "Total ERP pushes by outcome.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		documentsUploadedTotal,
		validationRunsTotal,
		validationFindings,
		validationScore,
		validationDuration,
		erpPushTotal,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		documentsUploadedTotal: documentsUploadedTotal,
		validationRunsTotal:    validationRunsTotal,
		validationFindings:     validationFindings,
		validationScore:        validationScore,
		validationDuration:     validationDuration,
		erpPushTotal:           erpPushTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses resource ids so the path label stays bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		if strings.HasSuffix(path, "/items") {
			return "/v1/documents/{document_id}/items"
		}
		return "/v1/documents/{document_id}"
	case strings.HasPrefix(path, "/v1/groups/"):
		switch {
		case strings.HasSuffix(path, "/documents"):
			return "/v1/groups/{group_id}/documents"
		case strings.HasSuffix(path, "/validate"):
			return "/v1/groups/{group_id}/validate"
		default:
			return "/v1/groups/{group_id}"
		}
	case strings.HasPrefix(path, "/v1/runs/"):
		if strings.HasSuffix(path, "/push") {
			return "/v1/runs/{run_id}/push"
		}
		return "/v1/runs/{run_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordDocumentUpload(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.documentsUploadedTotal.WithLabelValues(service, kind).Inc()
}

// RecordValidation captures one finished validation, synchronous or via
// a queued run.
func (m *HTTPServerMetrics) RecordValidation(service, status string, score int, severityCounts map[string]int, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	m.validationRunsTotal.WithLabelValues(service, status).Inc()
	m.validationScore.WithLabelValues(service).Observe(float64(score))
	m.validationDuration.WithLabelValues(service).Observe(duration.Seconds())
	for severity, count := range severityCounts {
		if count > 0 {
			m.validationFindings.WithLabelValues(service, severity).Add(float64(count))
		}
	}
}

func (m *HTTPServerMetrics) RecordERPPush(service string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.erpPushTotal.WithLabelValues(service, status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
