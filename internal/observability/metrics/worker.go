package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	taskTotal    *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	taskInFlight prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	taskTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ffv",
			Subsystem: "worker",
			Name:      "tasks_total",
			Help:      "Total processed queue tasks by task kind and status.",
		},
		[]string{"service", "task", "status"},
	)
	taskDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ffv",
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "Queue task duration in seconds by task kind and status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "task", "status"},
	)
	taskInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ffv",
			Subsystem: "worker",
			Name:      "tasks_in_flight",
			Help:      "Number of in-flight queue tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	registry.MustRegister(taskTotal, taskDuration, taskInFlight)

	return &WorkerMetrics{
		registry:     registry,
		taskTotal:    taskTotal,
		taskDuration: taskDuration,
		taskInFlight: taskInFlight,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartTask() {
	m.taskInFlight.Inc()
}

func (m *WorkerMetrics) FinishTask(service, task string, duration time.Duration, err error) {
	m.taskInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.taskTotal.WithLabelValues(service, task, status).Inc()
	m.taskDuration.WithLabelValues(service, task, status).Observe(duration.Seconds())
}
