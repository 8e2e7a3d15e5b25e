package persistence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/coop-console/internal/config"
	"github.com/spec-kit/coop-console/internal/storage"
)

// OpenBackend builds the client storage backend selected by cfg.Storage.Driver.
// The returned Redis client is non-nil only for the redis driver; the backend owns it.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Backend, *redis.Client, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory, "":
		logger.Warn("using in-memory client storage; sessions are lost on restart")
		return storage.NewMemoryBackend(), nil, nil
	case config.StorageDriverRedis:
		client := NewRedis(cfg.Redis, logger)
		return storage.NewRedisBackend(client, cfg.Storage.ClientTTL()), client, nil
	case config.StorageDriverPostgres:
		pool, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pool, DefaultMigrationsDir, logger); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return storage.NewPostgresBackend(pool), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
