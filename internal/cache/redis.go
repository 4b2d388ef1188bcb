package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"marketplace/internal/observability"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"github.com/sony/gobreaker"
)

// redisKeyPrefix scopes every cache key so Clear never touches limiter keys.
const redisKeyPrefix = "mkt:"

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// NewRedisClient connects to addr, which is either host:port or a
// redis:// / rediss:// URL, and pings it once.
func NewRedisClient(addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}
	// Servers without the CLIENT MAINT_NOTIFICATIONS subcommand reject the handshake.
	opts.MaintNotificationsConfig = &maintnotifications.Config{Mode: maintnotifications.ModeDisabled}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RedisCache is a Cache stored in Redis. Every call goes through a circuit
// breaker that opens after five consecutive failures.
type RedisCache struct {
	rdb        redis.Cmdable
	defaultTTL time.Duration
	breaker    *gobreaker.CircuitBreaker
	hits       atomic.Int64
	misses     atomic.Int64
}

// NewRedisCache wraps rdb.
func NewRedisCache(rdb redis.Cmdable, defaultTTL time.Duration) *RedisCache {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.GlobalLogger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &RedisCache{rdb: rdb, defaultTTL: defaultTTL, breaker: breaker}
}

func (r *RedisCache) Name() string { return "redis" }

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := r.breaker.Execute(func() (interface{}, error) {
		v, err := r.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return v, err
	})
	if err != nil {
		return nil, false, err
	}
	v, _ := res.([]byte)
	if v == nil {
		r.misses.Add(1)
		observability.CacheRequests.WithLabelValues("redis", "miss").Inc()
		return nil, false, nil
	}
	r.hits.Add(1)
	observability.CacheRequests.WithLabelValues("redis", "hit").Inc()
	return v, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.rdb.Set(ctx, redisKeyPrefix+key, value, ttl).Err()
	})
	return err
}

func (r *RedisCache) Delete(ctx context.Context, key string) (bool, error) {
	res, err := r.breaker.Execute(func() (interface{}, error) {
		return r.rdb.Del(ctx, redisKeyPrefix+key).Result()
	})
	if err != nil {
		return false, err
	}
	n, _ := res.(int64)
	return n > 0, nil
}

func (r *RedisCache) ClearPrefix(ctx context.Context, prefix string) (int, error) {
	res, err := r.breaker.Execute(func() (interface{}, error) {
		return r.deleteMatching(ctx, redisKeyPrefix+escapeGlob(prefix)+"*")
	})
	if err != nil {
		return 0, err
	}
	n, _ := res.(int)
	return n, nil
}

func (r *RedisCache) Clear(ctx context.Context) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return r.deleteMatching(ctx, redisKeyPrefix+"*")
	})
	return err
}

func (r *RedisCache) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{
		Backend: r.Name(),
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
		Breaker: r.breaker.State().String(),
	}
	res, err := r.breaker.Execute(func() (interface{}, error) {
		return r.countMatching(ctx, redisKeyPrefix+"*")
	})
	if err != nil {
		return stats, err
	}
	stats.Entries, _ = res.(int64)
	return stats, nil
}

// deleteMatching deletes keys matching pattern in SCAN-sized batches.
func (r *RedisCache) deleteMatching(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := r.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

func (r *RedisCache) countMatching(ctx context.Context, pattern string) (int64, error) {
	var (
		cursor uint64
		total  int64
	)
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return total, err
		}
		total += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
