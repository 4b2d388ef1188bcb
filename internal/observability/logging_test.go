package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := GlobalLogger
	SetLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { GlobalLogger = prev })
	return &buf
}

func TestRepoLoggerWrites(t *testing.T) {
	buf := captureGlobal(t)

	NewRepoLogger("products").LogCreate(context.Background(), map[string]any{
		"seller_id":  "s1",
		"product_id": "p1",
	})
	assert.Contains(t, buf.String(), `"msg":"repository create","table":"products","operation":"create","product_id":"p1","seller_id":"s1"`)
}

func TestRepoLoggerErrorsAreCounted(t *testing.T) {
	buf := captureGlobal(t)
	counter := RepositoryErrors.WithLabelValues("users", "update")
	before := testutil.ToFloat64(counter)

	l := NewRepoLogger("users")
	l.LogError(context.Background(), nil, "update")
	l.LogError(context.Background(), errors.New("disk full"), "update")

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Contains(t, buf.String(), `"error":"disk full"`)
}

func TestLogCacheErrorRespectsToggle(t *testing.T) {
	buf := captureGlobal(t)
	Config.EnableCacheLogging = false
	t.Cleanup(func() { Config.EnableCacheLogging = true })

	counter := CacheRequests.WithLabelValues("redis", "error")
	before := testutil.ToFloat64(counter)
	LogCacheError(context.Background(), "redis", "get", "products:x", errors.New("timeout"))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Zero(t, buf.Len())
}

func TestSetLoggerIgnoresNil(t *testing.T) {
	prev := GlobalLogger
	SetLogger(nil)
	assert.Same(t, prev, GlobalLogger)
}
