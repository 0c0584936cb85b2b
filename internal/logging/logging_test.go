package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"Warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestStructuredLoggerAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := newStructuredLogger(&buf, "prodplan", "v1.2.3", "info")
	logger.Debug("hidden")
	logger.Info("planned", "target", "gear")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "planned", rec["msg"])
	assert.Equal(t, "prodplan", rec["module"])
	assert.Equal(t, "v1.2.3", rec["version"])
	assert.Equal(t, "gear", rec["target"])
	assert.NotContains(t, rec, "source")
}

func TestStructuredLoggerDebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	logger := newStructuredLogger(&buf, "prodplan", "dev", "debug")
	logger.Debug("details")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Contains(t, rec, "source")
}

func TestStructuredLoggerFallsBackToEnv(t *testing.T) {
	t.Setenv(EnvLevel, "error")
	var buf bytes.Buffer
	logger := newStructuredLogger(&buf, "prodplan", "dev", "")
	logger.Warn("quiet")
	assert.Empty(t, buf.String())
	logger.Error("loud")
	assert.Contains(t, buf.String(), `"msg":"loud"`)
}
