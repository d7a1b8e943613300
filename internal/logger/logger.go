// Package logger configures structured logging with logrus.
// It sets up a JSON formatter with a service-level field and provides
// trace ID propagation through context.Context.
package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

type ctxKey string

const traceIDKey ctxKey = "trace_id"

// Init configures the standard logrus logger for the given service and
// returns an entry carrying the service name.
func Init(service string, level log.Level) *log.Entry {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	})
	log.SetLevel(level)

	return log.WithField("service", service)
}

// ParseLevel parses a level name, falling back to info.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// WithTraceID stores a trace ID in the context for downstream propagation.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID extracts the trace ID from context. Returns "" if not set.
func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

// GenerateTraceID creates a trace ID from a prefix and timestamp.
// Format: "{prefix}-{unixNano}".
func GenerateTraceID(prefix string, ts time.Time) string {
	return fmt.Sprintf("%s-%d", prefix, ts.UnixNano())
}

// FromContext returns an entry carrying the trace ID from ctx, if any.
func FromContext(ctx context.Context) *log.Entry {
	entry := log.NewEntry(log.StandardLogger())
	if tid := TraceID(ctx); tid != "" {
		entry = entry.WithField("trace_id", tid)
	}
	return entry
}
