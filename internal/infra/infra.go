// Package infra opens the external backends the service depends on.
package infra

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bearerauth/bearerauth/internal/config"
	"github.com/bearerauth/bearerauth/internal/migrations"
)

// Backends holds the optional Postgres pool and Redis client. Either may be
// nil in dev environments.
type Backends struct {
	DB    *pgxpool.Pool
	Cache *redis.Client
}

// Open connects to every backend configured in cfg and applies schema
// migrations when cfg.RunMigrations is set. Missing URLs are skipped; config
// validation already rejects them outside dev.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{}

	if cfg.DatabaseURL != "" {
		db, err := NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.DB = db

		if cfg.RunMigrations {
			if err := migrations.Up(ctx, db); err != nil {
				b.Close(logger)
				return nil, err
			}
			logger.Info("migrations applied")
		}
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory user directory")
	}

	if cfg.RedisURL != "" {
		cache, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			b.Close(logger)
			return nil, err
		}
		b.Cache = cache
	} else {
		logger.Warn("REDIS_URL not set, idempotency and login rate limiting disabled")
	}

	return b, nil
}

// Close releases every open backend.
func (b *Backends) Close(logger *slog.Logger) {
	if b.Cache != nil {
		if err := b.Cache.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}
	if b.DB != nil {
		b.DB.Close()
	}
}
