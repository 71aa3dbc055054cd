package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eatly/dishes-api/internal/config"
)

// Open builds the repository selected by cfg.StorageDriver. The returned
// close function releases the connection pool, if any.
//
// The postgres pool connects lazily, so Open succeeds while the database is
// down; callers that need a live connection should Ping.
func Open(ctx context.Context, cfg *config.Config) (DishRepository, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		return NewInMemoryDishRepository(), func() {}, nil
	case config.StorageDriverPostgres:
		poolConfig, err := cfg.Database.PoolConfig()
		if err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, wrapErr("create connection pool", err)
		}
		return NewPostgresDishRepository(pool, cfg.Database.Schema, cfg.Database.Table), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
