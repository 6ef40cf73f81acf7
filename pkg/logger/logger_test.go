package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gm.log")
	t.Setenv("GMSTATS_LOG_SINK", "file:"+path)

	Init("info")
	Debug("hidden_event")
	Info("event_recorded", "chain", "base")
	Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "event_recorded")
	assert.Contains(t, string(b), "chain=base")
	assert.NotContains(t, string(b), "hidden_event")
}
