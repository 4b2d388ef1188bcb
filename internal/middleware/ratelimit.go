package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"marketplace/internal/models"
	"marketplace/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// FailPolicy defines the behavior when the rate limit store is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if the store is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if the store is unavailable.
	FailClosed
)

// Decision is the outcome of one sliding-window check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts requests per key over a sliding window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// CheckRateLimit checks whether id may call resource again. A nil limiter
// means rate limiting is disabled.
func CheckRateLimit(ctx context.Context, l Limiter, resource, id string, limit int, window time.Duration) (Decision, error) {
	if l == nil {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	key := fmt.Sprintf("rate_limit:%s:%s", resource, id)
	return l.Allow(ctx, key, limit, window)
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window`.
// It keys by authenticated userID (if set in c.Locals("userID")) otherwise by client IP.
// It defaults to FailOpen policy.
func RateLimit(l Limiter, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(l, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy returns a Fiber middleware enforcing `limit` requests per `window` with a specific failure policy.
func RateLimitWithPolicy(l Limiter, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		decision, err := CheckRateLimit(c.UserContext(), l, resource, clientKey(c), limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit fail-closed",
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				return models.RespondWithError(c, fiber.StatusServiceUnavailable,
					&models.AppError{Code: models.CodeUnavailable, Message: "Rate limiting temporarily unavailable"})
			}
			Logger.WarnContext(c.UserContext(), "rate limit fail-open",
				slog.String("resource", resource),
				slog.String("error", err.Error()),
			)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			observability.RateLimitRejections.WithLabelValues(resource).Inc()
			retry := decision.RetryAfter
			if retry <= 0 {
				retry = window
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			msg := fmt.Sprintf("Rate limit exceeded. %d requests per %s allowed. Try again later.",
				limit, describeWindow(window))
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				&models.AppError{Code: models.CodeRateLimited, Message: msg})
		}
		return c.Next()
	}
}

// RateLimitIf applies h only when cond matches the request.
func RateLimitIf(cond func(c *fiber.Ctx) bool, h fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cond(c) {
			return c.Next()
		}
		return h(c)
	}
}

func clientKey(c *fiber.Ctx) string {
	if uid, ok := c.Locals("userID").(string); ok && uid != "" {
		return "user:" + uid
	}
	return "ip:" + ClientIP(c)
}

// ClientIP resolves the caller address. Proxy headers are honoured only when
// the app checks trusted proxies and the socket peer is one of them: the
// first X-Forwarded-For entry wins, then X-Real-IP. Anyone else gets the
// socket address.
func ClientIP(c *fiber.Ctx) string {
	if !c.App().Config().EnableTrustedProxyCheck || !c.IsProxyTrusted() {
		return c.Context().RemoteIP().String()
	}
	if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(c.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return c.Context().RemoteIP().String()
}

// TrustProxies returns cfg set up so that ClientIP believes proxy headers
// from the given peers only. No peers leaves every header ignored.
func TrustProxies(cfg fiber.Config, proxies []string) fiber.Config {
	cfg.EnableTrustedProxyCheck = true
	cfg.TrustedProxies = proxies
	return cfg
}

func describeWindow(window time.Duration) string {
	switch window {
	case time.Second:
		return "second"
	case time.Minute:
		return "minute"
	case time.Hour:
		return "hour"
	case 24 * time.Hour:
		return "day"
	default:
		return window.String()
	}
}
