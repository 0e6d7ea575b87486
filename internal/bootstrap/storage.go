package bootstrap

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/migration-gate/config"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage/memory"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage/postgres"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage/redisstore"
)

// OpenStorage connects the backend named by STORAGE_BACKEND. The postgres
// schema is applied before the store is returned.
func OpenStorage(ctx context.Context, cfg *config.Config) (storage.Gateway, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return memory.New(), nil

	case config.BackendPostgres:
		pool, err := OpenDB(ctx, DBOptions{
			DSN:      cfg.PostgresDSN(),
			MaxConns: int32(cfg.Database.MaxConns),
		})
		if err != nil {
			return nil, err
		}
		store := postgres.New(pool)
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return store, nil

	case config.BackendRedis:
		client, err := OpenRedis(ctx, RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return redisstore.New(client), nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
