package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/abhisek/psychometric/internal/config"
	"github.com/abhisek/psychometric/internal/llm"
	"github.com/abhisek/psychometric/internal/persist"
	"github.com/abhisek/psychometric/internal/store"
)

func openStore() (*store.Store, error) {
	s, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// openKV returns the configured record store. The returned close func is
// never nil.
func openKV(ctx context.Context, s *store.Store) (persist.KV, func() error, error) {
	if cfg.Storage.Backend != config.BackendRedis {
		return s.KV(), func() error { return nil }, nil
	}
	rkv, err := store.NewRedisKV(ctx, cfg.Storage.RedisAddr, cfg.Storage.RedisPassword,
		cfg.Storage.RedisDB, cfg.Storage.RedisPrefix)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	slog.Info("using redis record store", "addr", cfg.Storage.RedisAddr)
	return rkv, rkv.Close, nil
}

// llmConfig resolves the AI provider: explicit PSYCHOMETRIC_* settings
// first, then well-known API key variables.
func llmConfig() (llm.Config, error) {
	c := llm.ConfigFromEnv()
	if os.Getenv("PSYCHOMETRIC_LLM_PROVIDER") == "" && c.Validate() != nil {
		if discovered, ok := llm.DiscoverConfig(); ok {
			c = discovered
		}
	}
	if err := c.Validate(); err != nil {
		return llm.Config{}, err
	}
	return c, nil
}
