package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSON(level string, buf *bytes.Buffer) *Logger {
	return New(&Config{Level: level, Format: "json", Output: buf})
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	newJSON("info", buf).Info("match finished")

	entry := decode(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "match finished", entry["message"])
	assert.NotEmpty(t, entry["time"])
}

func TestLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	child := newJSON("info", buf).With().
		Str("scenario", "people").
		Int("iterations", 12).
		Float("residual", 0.5).
		Logger()

	child.Info("converged")

	entry := decode(t, buf)
	assert.Equal(t, "people", entry["scenario"])
	assert.Equal(t, float64(12), entry["iterations"])
	assert.Equal(t, 0.5, entry["residual"])
}

func TestLogger_ErrorWith(t *testing.T) {
	buf := &bytes.Buffer{}
	newJSON("error", buf).ErrorWith("tuning failed", errors.New("connection reset"), map[string]interface{}{
		"address": "localhost:5000",
	})

	entry := decode(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "connection reset", entry["error"])
	assert.Equal(t, "localhost:5000", entry["address"])
}

func TestLogger_Context(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := newJSON("info", buf).WithContext(context.Background())

	FromContext(ctx).Info("from context")

	assert.Equal(t, "from context", decode(t, buf)["message"])
	assert.NotNil(t, FromContext(context.Background()))
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFunc  func(*Logger)
		expected bool
	}{
		{"debug level logs debug", "debug", func(l *Logger) { l.Debug("x") }, true},
		{"info level skips debug", "info", func(l *Logger) { l.DebugWith("x", nil) }, false},
		{"warn level logs warn", "warn", func(l *Logger) { l.Warnf("x %d", 1) }, true},
		{"error level skips info", "error", func(l *Logger) { l.Infof("x %d", 1) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.logFunc(newJSON(tt.level, buf))
			if tt.expected {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestLogger_DebugEnabled(t *testing.T) {
	assert.True(t, newJSON("debug", &bytes.Buffer{}).DebugEnabled())
	assert.False(t, newJSON("info", &bytes.Buffer{}).DebugEnabled())
}
