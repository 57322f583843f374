package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/vitiscan/treatment-plan/internal/api"
	solutionapi "github.com/vitiscan/treatment-plan/internal/api/solution"
	"github.com/vitiscan/treatment-plan/internal/config"
	"github.com/vitiscan/treatment-plan/internal/integration/embedding"
	"github.com/vitiscan/treatment-plan/internal/integration/llm"
	"github.com/vitiscan/treatment-plan/internal/integration/weaviate"
	"github.com/vitiscan/treatment-plan/internal/knowledge"
	"github.com/vitiscan/treatment-plan/internal/pkg/metrics"
	"github.com/vitiscan/treatment-plan/internal/pkg/validator"
	"github.com/vitiscan/treatment-plan/internal/prompt"
	"github.com/vitiscan/treatment-plan/internal/repository"
	"github.com/vitiscan/treatment-plan/internal/telegram"
	"github.com/vitiscan/treatment-plan/internal/usecase/treatment"
)

// services holds what the HTTP API and the Telegram bot share.
type services struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	db      *pgxpool.Pool
	usecase *treatment.TreatmentUsecase
}

func (s *services) close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Build wires the HTTP service for the given environment.
func Build(environment string) (*App, error) {
	ctx := context.Background()

	svc, err := buildServices(ctx, environment)
	if err != nil {
		return nil, err
	}
	cfg, logger := svc.cfg, svc.logger

	solutionHandler := solutionapi.NewHandler(svc.usecase)
	router := api.SetupRouter(cfg, solutionHandler, svc.metrics, logger)
	logger.Info("HTTP router configured")

	// Plans wait on the model, the write deadline covers the request timeout.
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     svc.db,
		logger: logger,
	}, nil
}

// BuildTelegramBot creates the Telegram bot. The returned cleanup releases
// the database pool once the bot has stopped.
func BuildTelegramBot(environment string) (telegram.Bot, *zap.Logger, func(), error) {
	ctx := context.Background()

	svc, err := buildServices(ctx, environment)
	if err != nil {
		return nil, nil, nil, err
	}

	bot, err := telegram.NewBot(&svc.cfg.TelegramCfg, svc.usecase, svc.logger)
	if err != nil {
		svc.close()
		return nil, nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	svc.logger.Info("Telegram bot built successfully",
		zap.String("environment", svc.cfg.Environment),
	)

	return bot, svc.logger, svc.close, nil
}

func buildServices(ctx context.Context, environment string) (*services, error) {
	cfg, err := config.LoadConfig(environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.Bool("mocks", cfg.EnableMocks),
	)

	m := metrics.New()

	retriever, llmConnector, err := setupKnowledge(ctx, cfg, m, logger)
	if err != nil {
		return nil, err
	}

	svc := &services{cfg: cfg, logger: logger, metrics: m}

	plans, err := setupPlanRepository(ctx, cfg, svc, logger)
	if err != nil {
		return nil, err
	}

	svc.usecase = treatment.NewUsecase(
		retriever,
		llmConnector,
		prompt.NewBuilder(),
		plans,
		validator.New(),
		m,
	)
	logger.Info("Use cases initialized")

	return svc, nil
}

// setupKnowledge builds the retriever and the model connector, either
// against the configured services or against seeded in-memory mocks.
func setupKnowledge(
	ctx context.Context,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*knowledge.Retriever, treatment.LLMConnector, error) {
	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")

		embedder := embedding.NewMockEmbedder()
		store := weaviate.NewMockStore()
		if err := weaviate.SeedDemoKnowledge(ctx, store, embedder, cfg.RetrievalCfg.Collection); err != nil {
			return nil, nil, fmt.Errorf("seed mock knowledge: %w", err)
		}

		retriever := knowledge.NewRetriever(store, embedder, m, cfg.RetrievalCfg)
		return retriever, llm.NewMockConnector(), nil
	}

	logger.Info("Using real connectors for external services",
		zap.String("llm_model", cfg.LLMConnectorCfg.Model),
		zap.String("collection", cfg.RetrievalCfg.Collection),
	)

	embedder := embedding.NewLazy(func(context.Context) (embedding.Embedder, error) {
		return embedding.NewConnector(cfg.EmbeddingConnectorCfg), nil
	})
	store := weaviate.NewStore(cfg.WeaviateConnectorCfg)
	retriever := knowledge.NewRetriever(store, embedder, m, cfg.RetrievalCfg)

	return retriever, llm.NewConnector(cfg.LLMConnectorCfg), nil
}

// setupPlanRepository stores plans in Postgres when DATABASE_URL is set and
// in memory otherwise. The pool is attached to svc for shutdown.
func setupPlanRepository(
	ctx context.Context,
	cfg *config.Config,
	svc *services,
	logger *zap.Logger,
) (treatment.PlanRepository, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, keeping plans in memory",
			zap.Duration("retention", cfg.PlanRetention),
		)
		return repository.NewPlanMemory(cfg.PlanRetention), nil
	}

	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	svc.db = db
	return repository.NewPlanPostgres(db), nil
}
