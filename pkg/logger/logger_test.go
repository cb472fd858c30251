package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureDefault(t *testing.T, level, format string) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupWriter(&buf, level, format)
	return &buf
}

func TestFromContext_AddsRequestID(t *testing.T) {
	buf := captureDefault(t, "info", "json")
	ctx := WithRequestID(context.Background(), "req-42")

	FromContext(ctx).Info("search completed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "search completed", entry["msg"])
}

func TestFromContext_WithoutRequestID(t *testing.T) {
	buf := captureDefault(t, "info", "json")

	FromContext(context.Background()).Info("hello")

	assert.NotContains(t, buf.String(), "request_id")
}

func TestRequestID_Missing(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
}

func TestWithComponent(t *testing.T) {
	buf := captureDefault(t, "debug", "text")

	WithComponent("corpus").Debug("loaded")

	assert.Contains(t, buf.String(), "component=corpus")
}

func TestSetupWriter_LevelFilters(t *testing.T) {
	buf := captureDefault(t, "warn", "json")

	slog.Info("dropped")
	slog.Warn("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "kept")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
