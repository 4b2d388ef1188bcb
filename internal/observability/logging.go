// Package observability holds the shared logger, Prometheus collectors and
// OpenTelemetry setup.
package observability

import (
	"context"
	"log/slog"
	"os"
	"sort"
)

// Logger is a thin wrapper so call sites can grow helpers without touching
// every import of slog.
type Logger struct {
	*slog.Logger
}

// GlobalLogger writes JSON to stdout until SetLogger installs the request
// aware handler.
var GlobalLogger = &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stdout, nil))}

// SetLogger points GlobalLogger at l. Nil is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		GlobalLogger = &Logger{Logger: l}
	}
}

// LoggingConfig toggles the automatic repository and cache records.
type LoggingConfig struct {
	EnableRepoLogging  bool
	EnableCacheLogging bool
}

var Config = LoggingConfig{
	EnableRepoLogging:  true,
	EnableCacheLogging: true,
}

// RepoLogger records writes against one table.
type RepoLogger struct {
	table string
}

func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table}
}

func (l *RepoLogger) LogCreate(ctx context.Context, fields map[string]any) {
	l.write(ctx, "create", fields)
}

func (l *RepoLogger) LogUpdate(ctx context.Context, fields map[string]any) {
	l.write(ctx, "update", fields)
}

func (l *RepoLogger) LogDelete(ctx context.Context, fields map[string]any) {
	l.write(ctx, "delete", fields)
}

// LogError counts and logs a failed repository call. Nil is a no-op.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	if err == nil {
		return
	}
	RepositoryErrors.WithLabelValues(l.table, operation).Inc()
	if !Config.EnableRepoLogging {
		return
	}
	GlobalLogger.LogAttrs(ctx, slog.LevelError, "repository error",
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

func (l *RepoLogger) write(ctx context.Context, operation string, fields map[string]any) {
	if !Config.EnableRepoLogging {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys)+2)
	attrs = append(attrs, slog.String("table", l.table), slog.String("operation", operation))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	GlobalLogger.LogAttrs(ctx, slog.LevelInfo, "repository "+operation, attrs...)
}

// LogCacheError records a cache failure the caller chose to absorb.
func LogCacheError(ctx context.Context, backend, operation, key string, err error) {
	if err == nil {
		return
	}
	CacheRequests.WithLabelValues(backend, "error").Inc()
	if !Config.EnableCacheLogging {
		return
	}
	GlobalLogger.LogAttrs(ctx, slog.LevelWarn, "cache operation failed",
		slog.String("backend", backend),
		slog.String("operation", operation),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}
