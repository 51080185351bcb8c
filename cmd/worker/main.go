package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/facturaflow/validator/internal/bootstrap"
	"github.com/facturaflow/validator/internal/config"
	"github.com/facturaflow/validator/internal/observability/metrics"
)

const handlerTimeout = 5 * time.Minute

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "worker", cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux(workerMetrics),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Error("worker metrics server error", "error", err)
		}
	}()

	parseHandler := instrumented(workerMetrics, "document_parse", app.Parser.ParseByID)
	validateHandler := instrumented(workerMetrics, "group_validate", app.Runner.ExecuteRun)

	app.Logger.Info("worker subscribed",
		"parse_subject", cfg.NATSParseSubject,
		"validate_subject", cfg.NATSValidateSubject,
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := app.Queue.SubscribeDocumentParse(ctx, parseHandler); err != nil {
			app.Logger.Error("parse subscription error", "error", err)
			stop()
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.Queue.SubscribeGroupValidate(ctx, validateHandler); err != nil {
			app.Logger.Error("validate subscription error", "error", err)
			stop()
		}
	}()
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}

func metricsMux(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func instrumented(m *metrics.WorkerMetrics, task string, handler func(context.Context, string) error) func(context.Context, string) error {
	return func(ctx context.Context, id string) error {
		handlerCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()

		m.StartTask()
		start := time.Now()
		err := handler(handlerCtx, id)
		m.FinishTask("worker", task, time.Since(start), err)
		return err
	}
}
