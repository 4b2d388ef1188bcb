package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter keeps one sorted set per key, scored by request time in microseconds.
type RedisLimiter struct {
	rdb redis.Cmdable
	now func() time.Time
}

// NewRedisLimiter returns a limiter backed by rdb.
func NewRedisLimiter(rdb redis.Cmdable) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, now: time.Now}
}

// Allow trims the window, counts, and records the request in one pipeline.
// A rejected request is removed again so it does not extend the window.
func (r *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if r == nil || r.rdb == nil {
		return Decision{}, fmt.Errorf("redis client is nil")
	}

	now := r.now()
	nowScore := float64(now.UnixMicro())
	cutoff := float64(now.Add(-window).UnixMicro())
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()

	pipe := r.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatFloat(cutoff, 'f', 0, 64))
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	pipe.ZAdd(ctx, key, redis.Z{Score: nowScore, Member: member})
	pipe.Expire(ctx, key, 2*window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit pipeline: %w", err)
	}

	count := int(countCmd.Val())
	if count >= limit {
		if err := r.rdb.ZRem(ctx, key, member).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit rollback: %w", err)
		}
		retry := window
		if oldest := oldestCmd.Val(); len(oldest) > 0 {
			oldestAt := time.UnixMicro(int64(oldest[0].Score))
			retry = oldestAt.Add(window).Sub(now)
		}
		return Decision{Allowed: false, Limit: limit, Remaining: 0, RetryAfter: retry}, nil
	}

	return Decision{Allowed: true, Limit: limit, Remaining: limit - count - 1}, nil
}
