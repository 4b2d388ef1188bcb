package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketplace_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RepositoryErrors counts failed repository writes and queries by table.
	RepositoryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_repository_errors_total",
		Help: "Total repository errors by table and operation",
	}, []string{"table", "operation"})

	// CacheRequests counts cache lookups by backend and result (hit, miss, error).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_cache_requests_total",
		Help: "Total cache lookups by backend and result",
	}, []string{"backend", "result"})

	// CacheInvalidations counts namespace clears.
	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_cache_invalidations_total",
		Help: "Total cache namespace invalidations",
	}, []string{"namespace"})

	// RateLimitRejections counts requests rejected by the sliding window limiter.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_rate_limit_rejections_total",
		Help: "Total requests rejected by rate limiting",
	}, []string{"route"})

	// AuthEvents counts authentication outcomes (register, login, login_failed, token_rejected).
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_auth_events_total",
		Help: "Total authentication events by outcome",
	}, []string{"event"})

	// ImageUploads counts upload outcomes.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_image_uploads_total",
		Help: "Total image uploads by outcome",
	}, []string{"outcome"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
