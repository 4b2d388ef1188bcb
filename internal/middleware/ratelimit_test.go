package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (Decision, error) {
	return Decision{}, errors.New("store down")
}

func fakeClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	l := NewMemoryLimiter()
	clock, advance := fakeClock(time.Unix(1_700_000_000, 0))
	l.now = clock
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
		advance(10 * time.Second)
	}

	d, err := l.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	// oldest hit was 30s ago, so it leaves the window in 30s
	assert.Equal(t, 30*time.Second, d.RetryAfter)

	advance(31 * time.Second)
	d, err = l.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "oldest hit slid out of the window")

	d, err = l.Allow(ctx, "other", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "keys are independent")
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	l := NewMemoryLimiter()
	clock, advance := fakeClock(time.Unix(1_700_000_000, 0))
	l.now = clock

	_, _ = l.Allow(context.Background(), "old", 5, time.Minute)
	advance(2 * time.Hour)
	_, _ = l.Allow(context.Background(), "fresh", 5, time.Minute)

	assert.Equal(t, 1, l.Cleanup(time.Hour))
	assert.Len(t, l.hits, 1)
}

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	l := NewRedisLimiter(rdb)
	clock, advance := fakeClock(time.Unix(1_700_000_000, 0))
	l.now = clock
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "rate_limit:login:ip:1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		advance(time.Second)
	}

	d, err := l.Allow(ctx, "rate_limit:login:ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 58*time.Second, d.RetryAfter)

	card, err := rdb.ZCard(ctx, "rate_limit:login:ip:1.2.3.4").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), card, "rejected request is not recorded")

	advance(time.Minute)
	d, err = l.Allow(ctx, "rate_limit:login:ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiter_NilClient(t *testing.T) {
	var l *RedisLimiter
	_, err := l.Allow(context.Background(), "k", 1, time.Minute)
	assert.Error(t, err)
}

func TestRateLimitMiddleware(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	t.Run("disabled when limiter is nil", func(t *testing.T) {
		app := fiber.New()
		app.Get("/test", RateLimit(nil, 1, time.Minute), ok)

		for i := 0; i < 3; i++ {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}
	})

	t.Run("rejects with retry-after", func(t *testing.T) {
		app := fiber.New()
		app.Get("/test", RateLimit(NewMemoryLimiter(), 2, time.Minute, "login"), ok)

		for i := 0; i < 2; i++ {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("Retry-After"))
		assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
	})

	t.Run("forwarded clients are counted separately", func(t *testing.T) {
		app := fiber.New(TrustProxies(fiber.Config{}, []string{"0.0.0.0"}))
		app.Get("/test", RateLimit(NewMemoryLimiter(), 1, time.Minute, "list"), ok)

		for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("X-Forwarded-For", ip+", 172.16.0.1")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode, ip)
		}
	})

	t.Run("spoofed forwarding from an untrusted peer shares one bucket", func(t *testing.T) {
		app := fiber.New(TrustProxies(fiber.Config{}, nil))
		app.Get("/test", RateLimit(NewMemoryLimiter(), 1, time.Minute, "list"), ok)

		codes := make([]int, 0, 2)
		for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("X-Forwarded-For", ip)
			resp, err := app.Test(req)
			require.NoError(t, err)
			codes = append(codes, resp.StatusCode)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("FailOpen passes through", func(t *testing.T) {
		app := fiber.New()
		app.Get("/test", RateLimit(failingLimiter{}, 1, time.Minute), ok)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("FailClosed returns 503", func(t *testing.T) {
		app := fiber.New()
		app.Get("/sensitive", RateLimitWithPolicy(failingLimiter{}, 1, time.Minute, FailClosed), ok)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sensitive", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("RateLimitIf skips unmatched requests", func(t *testing.T) {
		app := fiber.New()
		limited := RateLimit(NewMemoryLimiter(), 1, time.Minute, "search")
		app.Get("/products", RateLimitIf(func(c *fiber.Ctx) bool { return c.Query("search") != "" }, limited), ok)

		for i := 0; i < 3; i++ {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/products", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/products?search=go", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/products?search=go", nil))
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	})
}

func TestClientIP(t *testing.T) {
	// app.Test connections come from 0.0.0.0.
	const peer = "0.0.0.0"
	tests := []struct {
		name    string
		config  fiber.Config
		headers map[string]string
		want    string
	}{
		{"trusted forwarded first entry", TrustProxies(fiber.Config{}, []string{peer}), map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"trusted real ip", TrustProxies(fiber.Config{}, []string{peer}), map[string]string{"X-Real-IP": "198.51.100.2"}, "198.51.100.2"},
		{"trusted forwarded wins over real ip", TrustProxies(fiber.Config{}, []string{peer}), map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "198.51.100.2"}, "203.0.113.7"},
		{"trusted range", TrustProxies(fiber.Config{}, []string{"0.0.0.0/8"}), map[string]string{"X-Forwarded-For": "203.0.113.7"}, "203.0.113.7"},
		{"trusted without headers", TrustProxies(fiber.Config{}, []string{peer}), nil, peer},
		{"untrusted peer ignores forwarded", TrustProxies(fiber.Config{}, []string{"10.9.9.9"}), map[string]string{"X-Forwarded-For": "203.0.113.7"}, peer},
		{"no trusted proxies ignores real ip", TrustProxies(fiber.Config{}, nil), map[string]string{"X-Real-IP": "198.51.100.2"}, peer},
		{"default app ignores headers", fiber.Config{}, map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-IP": "198.51.100.2"}, peer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(tt.config)
			app.Get("/", func(c *fiber.Ctx) error { return c.SendString(ClientIP(c)) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.want, string(body))
		})
	}
}
