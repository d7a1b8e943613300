package logger

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	entry := Init("test-service", log.InfoLevel)
	require.NotNil(t, entry)
	assert.Equal(t, "test-service", entry.Data["service"])
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, log.InfoLevel, ParseLevel("not-a-level"))
}

func TestTraceID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", TraceID(ctx))

	ctx = WithTraceID(ctx, "test-trace-123")
	assert.Equal(t, "test-trace-123", TraceID(ctx))
}

func TestGenerateTraceID(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 123456789, time.UTC)
	tid := GenerateTraceID("refresh", ts)

	assert.True(t, strings.HasPrefix(tid, "refresh-"))
	assert.Contains(t, tid, "123456789")
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetFormatter(&log.JSONFormatter{})
	defer log.SetOutput(os.Stdout)

	assert.NotContains(t, FromContext(context.Background()).Data, "trace_id")

	ctx := WithTraceID(context.Background(), "abc-123")
	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), `"trace_id":"abc-123"`)
}
