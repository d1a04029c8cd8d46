package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Level
	}{
		{"debug level", "debug", LevelDebug},
		{"info level", "info", LevelInfo},
		{"warn level", "warn", LevelWarn},
		{"warning alias", "warning", LevelWarn},
		{"error level", "error", LevelError},
		{"uppercase", "DEBUG", LevelDebug},
		{"padded", "  error ", LevelError},
		{"invalid level", "invalid", defaultLevel},
		{"empty string", "", defaultLevel},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, LevelFromString(tc.input))
		})
	}
}

func TestNullLogger(t *testing.T) {
	logger := NewNullLogger()

	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "key", "value")
	logger.Warn("warn message", "key", "value")
	logger.Error("error message", "key", "value")

	withLogger := logger.With("context", "value")
	require.IsType(t, &NullLogger{}, withLogger)
}

func TestStructuredLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Writer: &buf, Level: LevelInfo, JSON: true})

	logger.Debug("hidden")
	logger.With("node", "azure").Info("client ready", "deployment", "gpt-4o")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &record))
	require.Equal(t, "client ready", record["msg"])
	require.Equal(t, "azure", record["node"])
	require.Equal(t, "gpt-4o", record["deployment"])
	require.Contains(t, record["caller"], "log/logger_test.go")
}

func TestStructuredLoggerText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Writer: &buf, Level: LevelWarn})

	logger.Info("dropped")
	logger.Warn("kept", "key", "value")

	require.NotContains(t, buf.String(), "dropped")
	require.Contains(t, buf.String(), "kept")
	require.Contains(t, buf.String(), "key=value")
}

func TestContextFunctions(t *testing.T) {
	logger := NewNullLogger()

	ctx := WithLogger(context.Background(), logger)
	require.Equal(t, logger, Ctx(ctx))

	emptyLogger := Ctx(context.Background())
	require.IsType(t, &StructuredLogger{}, emptyLogger)
}

func TestDefaultLevel(t *testing.T) {
	previous := GetDefaultLevel()
	t.Cleanup(func() { SetDefaultLevel(previous) })

	SetDefaultLevel(LevelError)
	require.Equal(t, LevelError, GetDefaultLevel())
	require.Equal(t, LevelError, LevelFromString("bogus"))
	require.Equal(t, LevelDebug, LevelFromString("DEBUG"))
}
