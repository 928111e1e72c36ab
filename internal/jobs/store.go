package jobs

import (
	"context"
	"fmt"

	"growthcheck/internal/config"

	"github.com/rs/zerolog/log"
)

// Open returns the repository selected by cfg.JobStore.
func Open(ctx context.Context, cfg *config.AppConfig) (Repository, error) {
	log.Debug().Str("store", cfg.JobStore).Msg("Opening job store")

	switch cfg.JobStore {
	case config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreRedis:
		return OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}

	dialect, ok := DialectFor(cfg.JobStore)
	if !ok {
		return nil, fmt.Errorf("unsupported job store: %s", cfg.JobStore)
	}
	return OpenSQL(dialect, DialectConfig{Path: cfg.DatabasePath, URL: cfg.DatabaseURL})
}
