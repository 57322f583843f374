package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	pkgRetry "github.com/vitiscan/treatment-plan/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr     string        `env:"SERVER_ADDR" envDefault:":8000"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"90s"`

	// Database configuration. Plans are kept in memory when DATABASE_URL is empty.
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
	PlanRetention       time.Duration `env:"PLAN_RETENTION" envDefault:"24h"`

	// External service configurations
	LLMConnectorCfg       LLMConnectorConfig       `envPrefix:"LLM_"`
	EmbeddingConnectorCfg EmbeddingConnectorConfig `envPrefix:"EMBEDDING_"`
	WeaviateConnectorCfg  WeaviateConnectorConfig  `envPrefix:"WEAVIATE_"`

	// Retrieval configuration
	RetrievalCfg RetrievalConfig `envPrefix:"RETRIEVAL_"`

	// HTTP rate limiting
	RateLimitCfg RateLimitConfig `envPrefix:"RATE_LIMIT_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"6"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds
}

type LLMConnectorConfig struct {
	HTTPClientConfig
	CompletionEndpoint string               `env:"COMPLETION_ENDPOINT" envDefault:"/v1/chat/completions"`
	Model              string               `env:"MODEL" envDefault:"meta-llama/Meta-Llama-3-8B-Instruct"`
	MaxTokens          int                  `env:"MAX_TOKENS" envDefault:"700"`
	Temperature        float64              `env:"TEMPERATURE" envDefault:"0.2"`
	TopP               float64              `env:"TOP_P" envDefault:"0.9"`
	Retry              pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type EmbeddingConnectorConfig struct {
	HTTPClientConfig
	Endpoint  string               `env:"ENDPOINT" envDefault:"/pipeline/feature-extraction/sentence-transformers/all-MiniLM-L6-v2"`
	CacheTTL  time.Duration        `env:"CACHE_TTL" envDefault:"1h"`
	Normalize bool                 `env:"NORMALIZE" envDefault:"true"`
	Retry     pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type WeaviateConnectorConfig struct {
	HTTPClientConfig
	Retry pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type RetrievalConfig struct {
	Collection      string `env:"COLLECTION" envDefault:"VitiScanKnowledge"`
	Limit           int    `env:"LIMIT" envDefault:"8"`
	LabelField      string `env:"LABEL_FIELD" envDefault:"cnn_label"`
	IDField         string `env:"ID_FIELD" envDefault:"disease_id"`
	ModeField       string `env:"MODE_FIELD" envDefault:"farming_mode"`
	KnowledgeDir    string `env:"KNOWLEDGE_DIR" envDefault:"data/knowledge"`
	IngestBatchSize int    `env:"INGEST_BATCH_SIZE" envDefault:"20"`
}

type RateLimitConfig struct {
	Enabled bool          `env:"ENABLED" envDefault:"true"`
	Limit   int64         `env:"LIMIT" envDefault:"60"`
	Period  time.Duration `env:"PERIOD" envDefault:"1m"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`
	MaxIdleConns          int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// LoadConfig reads the .env file of the given environment (if any) and
// parses the process environment into a Config.
func LoadConfig(environment string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = environment

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if !cfg.EnableMocks {
		if cfg.LLMConnectorCfg.Url == "" {
			errors = append(errors, "LLM_SERVICE_URL is required when ENABLE_MOCKS is false")
		}
		if cfg.LLMConnectorCfg.Token == "" {
			errors = append(errors, "LLM_TOKEN is required when ENABLE_MOCKS is false")
		}
		if cfg.EmbeddingConnectorCfg.Url == "" {
			errors = append(errors, "EMBEDDING_SERVICE_URL is required when ENABLE_MOCKS is false")
		}
		if cfg.WeaviateConnectorCfg.Url == "" {
			errors = append(errors, "WEAVIATE_SERVICE_URL is required when ENABLE_MOCKS is false")
		}
	}

	if cfg.RetrievalCfg.Limit < 1 || cfg.RetrievalCfg.Limit > 100 {
		errors = append(errors, fmt.Sprintf("RETRIEVAL_LIMIT must be between 1 and 100, got %d", cfg.RetrievalCfg.Limit))
	}

	if cfg.LLMConnectorCfg.MaxTokens < 1 {
		errors = append(errors, fmt.Sprintf("LLM_MAX_TOKENS must be positive, got %d", cfg.LLMConnectorCfg.MaxTokens))
	}

	if cfg.RateLimitCfg.Enabled && (cfg.RateLimitCfg.Limit < 1 || cfg.RateLimitCfg.Period <= 0) {
		errors = append(errors, fmt.Sprintf("RATE_LIMIT_LIMIT and RATE_LIMIT_PERIOD must be positive, got %d per %s",
			cfg.RateLimitCfg.Limit, cfg.RateLimitCfg.Period))
	}

	if cfg.TelegramCfg.RateLimitPerMinute < 1 || cfg.TelegramCfg.RateLimitPerMinute > 60 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", cfg.TelegramCfg.RateLimitPerMinute))
	}

	if cfg.DatabaseURL != "" {
		if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
			errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
		}
		if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
			errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
