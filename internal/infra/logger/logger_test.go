package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"", zerolog.InfoLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"chatty", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestInit_Writer(t *testing.T) {
	var buf bytes.Buffer
	closer, err := Init(Config{Level: "warn", Writer: &buf})
	require.NoError(t, err)
	defer closer.Close()

	zlog.Info().Msg("player: hidden")
	zlog.Warn().Msg("player: shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "player: shown")
}

func TestInit_FileIsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focusbox.log")
	closer, err := Init(Config{Output: "file", File: path, Level: "info"})
	require.NoError(t, err)

	zlog.Info().Msg("session: started")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "session: started", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestInit_BadFile(t *testing.T) {
	_, err := Init(Config{Output: "file", File: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}

func TestShortCaller(t *testing.T) {
	file := filepath.Join("root", "internal", "app", "player", "adapter.go")
	assert.Equal(t, filepath.Join("player", "adapter.go")+":42", shortCaller(0, file, 42))
	assert.Equal(t, "main.go:7", shortCaller(0, "main.go", 7))
}
