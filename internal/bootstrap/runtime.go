// Package bootstrap wires the process-wide runtime: database, Redis, cache
// and rate limiter, chosen from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"marketplace/internal/cache"
	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/middleware"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Runtime bundles the long-lived dependencies the HTTP server is built on.
type Runtime struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Cache   cache.Cache
	Limiter middleware.Limiter
}

// InitRuntime connects to the database and, when either backend asks for it,
// to Redis. Background cleanup for the in-memory stores runs until ctx is
// cancelled.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	rt := &Runtime{DB: db}
	if cfg.CacheBackend == "redis" || (cfg.RateLimitEnabled && cfg.RateLimitBackend == "redis") {
		rdb, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			// Fall back to the in-process stores rather than refusing to boot.
			middleware.Logger.Warn("redis unavailable, using in-memory backends",
				slog.String("addr", cfg.RedisURL),
				slog.String("error", err.Error()),
			)
		} else {
			rt.Redis = rdb
		}
	}

	rt.Cache = BuildCache(ctx, cfg, rt.Redis)
	rt.Limiter = BuildLimiter(ctx, cfg, rt.Redis)
	return rt, nil
}

// BuildCache returns the configured cache backend. A nil rdb forces memory.
func BuildCache(ctx context.Context, cfg *config.Config, rdb *redis.Client) cache.Cache {
	ttl := cache.TTLsFromConfig(cfg).Products
	if cfg.CacheBackend == "redis" && rdb != nil {
		middleware.Logger.Info("cache backend selected", slog.String("backend", "redis"))
		return cache.NewRedisCache(rdb, ttl)
	}

	mc := cache.NewMemoryCache(ttl)
	interval := time.Duration(cfg.CacheCleanupIntervalS) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	mc.StartCleanup(ctx, interval)
	middleware.Logger.Info("cache backend selected", slog.String("backend", "memory"))
	return mc
}

// BuildLimiter returns the configured sliding-window limiter, or nil when
// rate limiting is disabled.
func BuildLimiter(ctx context.Context, cfg *config.Config, rdb *redis.Client) middleware.Limiter {
	if !cfg.RateLimitEnabled {
		middleware.Logger.Info("rate limiting disabled")
		return nil
	}
	if cfg.RateLimitBackend == "redis" && rdb != nil {
		return middleware.NewRedisLimiter(rdb)
	}

	ml := middleware.NewMemoryLimiter()
	ml.StartCleanup(ctx, time.Minute, longestWindow(cfg))
	return ml
}

func longestWindow(cfg *config.Config) time.Duration {
	longest := time.Minute
	for _, raw := range []string{
		cfg.RateLimitRegister,
		cfg.RateLimitLogin,
		cfg.RateLimitProductCreate,
		cfg.RateLimitProductUpdate,
		cfg.RateLimitProductList,
		cfg.RateLimitSearch,
		cfg.RateLimitUpload,
	} {
		longest = max(longest, cfg.Rule(raw).Window)
	}
	return longest
}

// Close releases the database and Redis connections.
func (rt *Runtime) Close() {
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				middleware.Logger.Error("error closing sql DB", slog.String("error", err.Error()))
			}
		}
	}
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}
}
