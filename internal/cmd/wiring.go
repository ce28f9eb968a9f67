package cmd

import (
	"context"

	"github.com/foxstudiohua/AsynKingfisher/cache"
	"github.com/foxstudiohua/AsynKingfisher/fetch"
	"github.com/foxstudiohua/AsynKingfisher/internal/config"
	"github.com/foxstudiohua/AsynKingfisher/internal/logging"
)

// buildLogger creates the structured logger described by cfg.
func buildLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
}

// buildManager wires a resource manager from configuration: a Redis
// store when one is configured, the in-memory store otherwise. The
// returned cleanup releases the store.
func buildManager(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*fetch.Manager, func(), error) {
	var store cache.Store
	cleanup := func() {}

	if cfg.Cache.RedisAddr != "" {
		r, err := cache.NewRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.TTL())
		if err != nil {
			return nil, nil, err
		}
		store = r
		cleanup = func() { _ = r.Close() }
	} else {
		store = cache.NewMemory(cfg.Cache.MemoryCapacity, cfg.Cache.TTL())
	}

	manager := fetch.NewManager(
		fetch.WithStore(store),
		fetch.WithTimeout(cfg.Fetch.Timeout()),
		fetch.WithAllowedHosts(cfg.Fetch.AllowedHosts...),
		fetch.WithLogger(logger),
	)
	return manager, cleanup, nil
}
