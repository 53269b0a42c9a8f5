package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestInitialize_JSON(t *testing.T) {
	t.Cleanup(func() { Initialize(os.Stderr, "text", "info") })

	var buf bytes.Buffer
	Initialize(&buf, "json", "warn")
	Info("dropped")
	Warn("kept", "clause", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "WARN", rec["level"])
	assert.EqualValues(t, 2, rec["clause"])
}

func TestInitialize_Text(t *testing.T) {
	t.Cleanup(func() { Initialize(os.Stderr, "text", "info") })

	var buf bytes.Buffer
	Initialize(&buf, "text", "debug")
	With("component", "web").Debug("request")
	assert.Contains(t, buf.String(), "request")
	assert.Contains(t, buf.String(), "web")
}
