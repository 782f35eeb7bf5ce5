package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{
			name:   "default config",
			config: nil,
		},
		{
			name: "custom json config",
			config: &Config{
				Level:  "debug",
				Format: "json",
				Output: io.Discard,
			},
		},
		{
			name: "console config without output",
			config: &Config{
				Level:  "info",
				Format: "console",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, New(tt.config))
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "info", Format: "json", Output: buf})

	logger.Info("generation finished")

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))

	assert.Equal(t, "info", logEntry["level"])
	assert.Equal(t, "generation finished", logEntry["message"])
	assert.NotEmpty(t, logEntry["time"])
}

func TestLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "info", Format: "json", Output: buf})

	child := logger.With().
		Str("schema", "shop").
		Int("tables", 12).
		Logger()

	child.Info("schema emitted")

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))

	assert.Equal(t, "shop", logEntry["schema"])
	assert.Equal(t, float64(12), logEntry["tables"])
	assert.Equal(t, "schema emitted", logEntry["message"])
}

func TestLogger_ErrorWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{Level: "error", Format: "json", Output: buf})

	logger.ErrorWith("catalog query failed", errors.New("table doesn't exist"), map[string]interface{}{
		"schema": "shop",
		"query":  "list_columns",
	})

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))

	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "catalog query failed", logEntry["message"])
	assert.Equal(t, "table doesn't exist", logEntry["error"])
	assert.Equal(t, "shop", logEntry["schema"])
	assert.Equal(t, "list_columns", logEntry["query"])
}

func TestNop_Discards(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().ErrorWith("dropped", errors.New("boom"), nil)
	})
}

func TestLevel_FallsBackToInfo(t *testing.T) {
	for _, name := range []string{"", "verbose", "INFO"} {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: name, Format: "json", Output: buf})
		l.Debug("hidden")
		l.Info("shown")
		assert.NotContains(t, buf.String(), "hidden", name)
		assert.Contains(t, buf.String(), "shown", name)
	}
}

func TestLogger_RequestEvent(t *testing.T) {
	buf := &bytes.Buffer{}
	New(&Config{Level: "info", Format: "json", Output: buf}).
		RequestEvent().Str("path", "/modules").Int("status", 200).Msg("request")

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "/modules", logEntry["path"])
	assert.Equal(t, float64(200), logEntry["status"])
}

func TestLogger_LevelsAreIndependent(t *testing.T) {
	debugBuf := &bytes.Buffer{}
	errorBuf := &bytes.Buffer{}

	debugLogger := New(&Config{Level: "debug", Format: "json", Output: debugBuf})
	errorLogger := New(&Config{Level: "error", Format: "json", Output: errorBuf})

	debugLogger.Debug("visible")
	errorLogger.Info("hidden")
	errorLogger.Error("visible")

	assert.Contains(t, debugBuf.String(), "visible")
	assert.NotContains(t, errorBuf.String(), "hidden")
	assert.Contains(t, errorBuf.String(), "visible")
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFunc  func(*Logger)
		expected bool
	}{
		{"debug level logs debug", "debug", func(l *Logger) { l.Debug("m") }, true},
		{"info level skips debug", "info", func(l *Logger) { l.Debug("m") }, false},
		{"warn level logs warn", "warn", func(l *Logger) { l.Warn("skipped rows") }, true},
		{"error level skips info", "error", func(l *Logger) { l.Info("m") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.logFunc(New(&Config{Level: tt.level, Format: "json", Output: buf}))

			if tt.expected {
				assert.NotEmpty(t, buf.String(), "expected log output")
			} else {
				assert.Empty(t, buf.String(), "expected no log output")
			}
		})
	}
}

func BenchmarkLogger_WithFields(b *testing.B) {
	logger := New(&Config{Level: "info", Format: "json", Output: io.Discard})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.With().
			Str("schema", "shop").
			Int("table", i).
			Logger().
			Info("table emitted")
	}
}
