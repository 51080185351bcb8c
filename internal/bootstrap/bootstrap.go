package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/facturaflow/validator/internal/config"
	"github.com/facturaflow/validator/internal/core/ports"
	"github.com/facturaflow/validator/internal/core/usecase"
	"github.com/facturaflow/validator/internal/core/validation"
	"github.com/facturaflow/validator/internal/infrastructure/erp"
	"github.com/facturaflow/validator/internal/infrastructure/extractor/lineitems"
	"github.com/facturaflow/validator/internal/infrastructure/graph/neo4j"
	"github.com/facturaflow/validator/internal/infrastructure/queue/nats"
	"github.com/facturaflow/validator/internal/infrastructure/repository/postgres"
	"github.com/facturaflow/validator/internal/infrastructure/resilience"
	"github.com/facturaflow/validator/internal/infrastructure/storage/localfs"
	"github.com/facturaflow/validator/internal/observability/logging"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue ports.MessageQueue

	Ingest      ports.DocumentIngestor
	Reader      ports.DocumentReader
	Groups      ports.GroupService
	Validations ports.ValidationService
	Parser      ports.DocumentParseProcessor
	Runner      ports.RunProcessor

	closeFn func()
}

func New(ctx context.Context, service string, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	docRepo := postgres.NewDocumentRepository(db)
	itemRepo := postgres.NewLineItemRepository(db)
	runRepo := postgres.NewRunRepository(db)
	if err := docRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	if err := itemRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure line items schema: %w", err)
	}
	if err := runRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure runs schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{})
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSParseSubject, cfg.NATSValidateSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	groupStore, err := neo4j.NewGroupStore(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
	if err != nil {
		return nil, fmt.Errorf("init group store: %w", err)
	}

	policy, err := validation.LoadPolicyFile(cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("load validation policy: %w", err)
	}

	erpClient := erp.New(cfg.ERPBaseURL, cfg.ERPAPIKey, erp.Options{
		Timeout:            time.Duration(cfg.ERPTimeoutSeconds) * time.Second,
		ResilienceExecutor: executor,
	})
	extractor := lineitems.NewExtractor()

	ingestUC := usecase.NewIngestDocumentUseCase(docRepo, storage, queue)
	readerUC := usecase.NewDocumentReadUseCase(docRepo, itemRepo)
	groupUC := usecase.NewGroupUseCase(groupStore, docRepo)
	parseUC := usecase.NewParseDocumentUseCase(docRepo, itemRepo, storage, extractor)
	validateUC := usecase.NewValidateGroupUseCase(runRepo, groupStore, docRepo, itemRepo, queue, erpClient, policy)

	return &App{
		Config: cfg,
		Logger: logger,
		Queue:  queue,

		Ingest:      ingestUC,
		Reader:      readerUC,
		Groups:      groupUC,
		Validations: validateUC,
		Parser:      parseUC,
		Runner:      validateUC,

		closeFn: func() {
			queue.Close()
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = groupStore.Close(closeCtx)
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
