package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/vitiscan/treatment-plan/internal/config"
	pkgRetry "github.com/vitiscan/treatment-plan/internal/pkg/retry"
)

// Postgres often comes up after the service in compose deployments.
var databasePingRetry = pkgRetry.RetryConfig{
	Attempts: 5,
	Delay:    time.Second,
	MaxDelay: 5 * time.Second,
	Timeout:  5 * time.Second,
}

// setupDatabase creates the connection pool of the plan history and waits
// until the database answers.
func setupDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MinConns = int32(cfg.DBMinConns)
	poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.DBHealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	ctx = ctxzap.ToContext(ctx, logger)
	err = retry.Do(func() error {
		attemptCtx, cancel := databasePingRetry.AttemptContext(ctx)
		defer cancel()
		return pool.Ping(attemptCtx)
	}, databasePingRetry.ToRetryOptions(ctx, "database_ping", nil)...)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection pool established",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database),
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns),
		zap.Duration("max_conn_lifetime", poolConfig.MaxConnLifetime),
	)

	return pool, nil
}
