package builder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vitiscan/treatment-plan/internal/config"
	"github.com/vitiscan/treatment-plan/internal/integration/embedding"
	"github.com/vitiscan/treatment-plan/internal/integration/weaviate"
	"github.com/vitiscan/treatment-plan/internal/knowledge"
)

// Ingestion is what the knowledge-ingest command runs with.
type Ingestion struct {
	Config   *config.Config
	Logger   *zap.Logger
	Ingester *knowledge.Ingester
}

// BuildIngestion wires an ingester writing to the configured collection.
// With mocks enabled the chunks land in a throwaway in-memory store.
func BuildIngestion(environment string) (*Ingestion, error) {
	cfg, err := config.LoadConfig(environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	var (
		indexer  knowledge.Indexer
		embedder knowledge.BatchEmbedder
	)
	if cfg.EnableMocks {
		logger.Warn("mocks enabled, ingested knowledge is not persisted")
		indexer = weaviate.NewMockStore()
		embedder = embedding.NewMockEmbedder()
	} else {
		indexer = weaviate.NewStore(cfg.WeaviateConnectorCfg)
		embedder = embedding.NewLazy(func(context.Context) (embedding.Embedder, error) {
			return embedding.NewConnector(cfg.EmbeddingConnectorCfg), nil
		})
	}

	return &Ingestion{
		Config:   cfg,
		Logger:   logger,
		Ingester: knowledge.NewIngester(indexer, embedder, cfg.RetrievalCfg.Collection, cfg.RetrievalCfg.IngestBatchSize),
	}, nil
}
