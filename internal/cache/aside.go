package cache

import (
	"context"
	"encoding/json"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/observability"
)

// Namespaces group keys so a write can drop every dependent read at once.
const (
	NamespaceProducts   = "products"
	NamespaceCategories = "categories"
	NamespaceUsers      = "users"
)

// TTLs holds the per-namespace expiry.
type TTLs struct {
	Products   time.Duration
	Categories time.Duration
	Users      time.Duration
}

// DefaultTTLs mirrors the configuration defaults.
var DefaultTTLs = TTLs{
	Products:   5 * time.Minute,
	Categories: 10 * time.Minute,
	Users:      15 * time.Minute,
}

// TTLsFromConfig reads CACHE_TTL_*; non-positive values keep the default.
func TTLsFromConfig(cfg *config.Config) TTLs {
	ttls := DefaultTTLs
	if cfg == nil {
		return ttls
	}
	if cfg.CacheTTLProducts > 0 {
		ttls.Products = time.Duration(cfg.CacheTTLProducts) * time.Second
	}
	if cfg.CacheTTLCategories > 0 {
		ttls.Categories = time.Duration(cfg.CacheTTLCategories) * time.Second
	}
	if cfg.CacheTTLUsers > 0 {
		ttls.Users = time.Duration(cfg.CacheTTLUsers) * time.Second
	}
	return ttls
}

// Aside returns the cached value for key or calls load and caches its
// result. Cache failures are logged and never surface to the caller; a nil
// cache always loads.
func Aside[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if c == nil {
		return load()
	}

	spanCtx, span := observability.StartCacheSpan(ctx, c.Name(), "aside")
	raw, found, err := c.Get(spanCtx, key)
	observability.EndSpan(span, err)

	if err != nil {
		observability.LogCacheError(ctx, c.Name(), "get", key, err)
	} else if found {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		observability.LogCacheError(ctx, c.Name(), "decode", key, err)
		_, _ = c.Delete(ctx, key)
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		observability.LogCacheError(ctx, c.Name(), "encode", key, err)
		return value, nil
	}
	if err := c.Set(ctx, key, encoded, ttl); err != nil {
		observability.LogCacheError(ctx, c.Name(), "set", key, err)
	}
	return value, nil
}

// Invalidate drops every key in the given namespaces.
func Invalidate(ctx context.Context, c Cache, namespaces ...string) {
	if c == nil {
		return
	}
	for _, ns := range namespaces {
		observability.CacheInvalidations.WithLabelValues(ns).Inc()
		if _, err := c.ClearPrefix(ctx, ns+":"); err != nil {
			observability.LogCacheError(ctx, c.Name(), "invalidate", ns, err)
		}
	}
}

// InvalidateProducts runs after any product write.
func InvalidateProducts(ctx context.Context, c Cache) {
	Invalidate(ctx, c, NamespaceProducts)
}

// InvalidateCategories runs after any category write; product listings embed
// their category, so they go too.
func InvalidateCategories(ctx context.Context, c Cache) {
	Invalidate(ctx, c, NamespaceCategories, NamespaceProducts)
}

// InvalidateUsers runs after a profile write. Deleting a user cascades to
// their products.
func InvalidateUsers(ctx context.Context, c Cache, deleted bool) {
	if deleted {
		Invalidate(ctx, c, NamespaceUsers, NamespaceProducts)
		return
	}
	Invalidate(ctx, c, NamespaceUsers)
}
