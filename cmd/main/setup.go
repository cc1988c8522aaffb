package main

import (
	"context"
	"time"

	"market-dashboard/src/analysis/core"
	"market-dashboard/src/data_source/backend"
	"market-dashboard/src/fibonacci"
	"market-dashboard/src/interfaces"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
	"market-dashboard/src/network"
	"market-dashboard/src/storage"
)

// setupBackend builds the REST client and logs in when credentials are
// configured and no token was given.
func setupBackend(ctx context.Context, cfg *models.MConfig, appLogger *logger.Logger) (*backend.ChartBackendClient, error) {
	netMgr := network.NewAsyncNetworkManager(&cfg.Backend, logger.NewLogger(cfg, "Network"))
	client := backend.NewChartBackendClient(netMgr)

	if cfg.Backend.Token == "" && cfg.Backend.Username != "" {
		resp, err := client.Login(ctx, models.MLoginCredentials{
			Username: cfg.Backend.Username,
			Password: cfg.Backend.Password,
		})
		if err != nil {
			return nil, err
		}
		appLogger.Info("Logged in to %s as %s", cfg.Backend.BaseURL, resp.User.Username)
	}
	return client, nil
}

// -----------------------------------------------------------------------------

// setupCache picks the groups cache. An unreachable redis falls back to memory.
func setupCache(ctx context.Context, cfg *models.MConfig, appLogger *logger.Logger) (interfaces.IGroupsCache, func()) {
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second

	if cfg.Cache.Type == "redis" {
		rc := storage.NewRedisGroupsCache(&cfg.Cache, logger.NewLogger(cfg, "RedisCache"))
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := rc.Ping(pingCtx)
		if err == nil {
			appLogger.Info("Groups cache: redis at %s", cfg.Cache.RedisAddr)
			return rc, func() { rc.Close() }
		}
		appLogger.Warning("Redis at %s unreachable (%v), using memory cache", cfg.Cache.RedisAddr, err)
		rc.Close()
	}

	appLogger.Info("Groups cache: memory, ttl %v", ttl)
	return storage.NewMemoryGroupsCache(ttl), func() {}
}

// -----------------------------------------------------------------------------

// setupIdentity makes retracement ids reproducible when a seed is configured.
func setupIdentity(cfg *models.MConfig) core.IdentitySource {
	if cfg.Fibonacci.Seed != 0 {
		return fibonacci.NewSequenceIdentity(cfg.Fibonacci.Seed)
	}
	return fibonacci.NewClockIdentity()
}
