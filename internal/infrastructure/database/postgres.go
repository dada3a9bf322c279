package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/config"
)

// NewPostgresDB opens a connection pool and pings it.
func NewPostgresDB(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// ConnectWithRetry calls NewPostgresDB up to cfg.MaxRetries times, waiting
// cfg.RetryDelay between attempts.
func ConnectWithRetry(ctx context.Context, cfg config.DBConfig, logger *zap.Logger) (*sql.DB, error) {
	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := NewPostgresDB(ctx, cfg)
		if err == nil {
			logger.Info("Connected to PostgreSQL", zap.String("host", cfg.Host), zap.String("database", cfg.Name))
			return db, nil
		}
		lastErr = err
		if i == attempts {
			break
		}
		logger.Warn("Failed to connect to database, retrying",
			zap.Int("attempt", i),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_in", cfg.RetryDelay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryDelay):
		}
	}
	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", attempts, lastErr)
}
