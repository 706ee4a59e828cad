// Package logging provides structured JSON logging for sysdb.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with catalog context fields.
type Logger struct {
	*slog.Logger
}

type contextKey string

const (
	tenantKey     contextKey = "tenant"
	collectionKey contextKey = "collection"
	operationKey  contextKey = "operation"
)

// New creates a new Logger with JSON output.
func New() *Logger {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter creates a new Logger with JSON output to the provided writer.
func NewWithWriter(w io.Writer) *Logger {
	return NewWithLevel(w, slog.LevelInfo)
}

// NewWithLevel creates a new Logger with JSON output at the given minimum level.
func NewWithLevel(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// An empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// WithContext returns a logger with context values attached.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	logger := l.Logger

	if tenant, ok := ctx.Value(tenantKey).(string); ok && tenant != "" {
		logger = logger.With(slog.String("tenant", tenant))
	}
	if collection, ok := ctx.Value(collectionKey).(string); ok && collection != "" {
		logger = logger.With(slog.String("collection", collection))
	}
	if operation, ok := ctx.Value(operationKey).(string); ok && operation != "" {
		logger = logger.With(slog.String("operation", operation))
	}

	return &Logger{Logger: logger}
}

// With returns a new logger with additional attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// ContextWithTenant adds a tenant id to the context.
func ContextWithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantKey, tenant)
}

// ContextWithCollection adds a collection id to the context.
func ContextWithCollection(ctx context.Context, collection string) context.Context {
	return context.WithValue(ctx, collectionKey, collection)
}

// ContextWithOperation adds a catalog operation name to the context.
func ContextWithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey, operation)
}

// TenantFromContext extracts the tenant id from the context.
func TenantFromContext(ctx context.Context) string {
	if tenant, ok := ctx.Value(tenantKey).(string); ok {
		return tenant
	}
	return ""
}

// CollectionFromContext extracts the collection id from the context.
func CollectionFromContext(ctx context.Context) string {
	if collection, ok := ctx.Value(collectionKey).(string); ok {
		return collection
	}
	return ""
}

// OperationFromContext extracts the operation name from the context.
func OperationFromContext(ctx context.Context) string {
	if operation, ok := ctx.Value(operationKey).(string); ok {
		return operation
	}
	return ""
}
