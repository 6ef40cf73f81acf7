package shutdown

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCrashDump(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteCrashDump(dir, "boom", errors.New("disk on fire"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "crash"), filepath.Dir(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "reason: boom")
	assert.Contains(t, string(b), "disk on fire")
	assert.Contains(t, string(b), "goroutine")

	entries, err := os.ReadDir(filepath.Join(dir, "crash"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"))
	}
}

func TestSetupSignalHandlerCancel(t *testing.T) {
	ctx, cancel := SetupSignalHandler(context.Background())
	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
