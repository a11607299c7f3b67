// Package bootstrap wires the process-level dependencies shared by the
// server and the command line tools.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/middleware"
	"yatube/internal/repository"
	"yatube/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedGroups upserts the bundled group fixtures after connecting.
	SeedGroups bool
}

// InitRuntime connects to the database and Redis and optionally seeds the
// bundled groups. The Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := cache.InitRedis(cfg.RedisURL)

	if opts.SeedGroups {
		if err := seedGroups(ctx, db); err != nil {
			_ = database.Close(db)
			if rdb != nil {
				_ = rdb.Close()
			}
			return nil, nil, fmt.Errorf("failed to seed groups: %w", err)
		}
	}

	return db, rdb, nil
}

func seedGroups(ctx context.Context, db *gorm.DB) error {
	fixtures, err := seed.DefaultGroups()
	if err != nil {
		return err
	}
	groups, err := seed.SeedGroups(ctx, repository.NewGroupRepository(db), fixtures)
	if err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "Bundled groups ensured", slog.Int("count", len(groups)))
	return nil
}
