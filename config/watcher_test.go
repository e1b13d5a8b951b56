package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewFileWatcher(t *testing.T) {
	f := writeFile(t, t.TempDir(), "flow.json", "{}")

	w, err := NewFileWatcher([]string{f},
		WithDebounceDelay(500*time.Millisecond),
		WithPollInterval(2*time.Second),
		WithWatcherLogger(zap.NewNop()),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{f}, w.Paths())
	assert.False(t, w.IsRunning())
	assert.Equal(t, 500*time.Millisecond, w.debounceDelay)
	assert.Equal(t, 2*time.Second, w.pollInterval)
}

func TestNewFileWatcher_MissingPathIsAllowed(t *testing.T) {
	w, err := NewFileWatcher([]string{filepath.Join(t.TempDir(), "later.json")})
	require.NoError(t, err)
	assert.Len(t, w.Paths(), 1)
}

func TestFileWatcher_CheckFiles(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "flow.json", "{}")
	missing := filepath.Join(dir, "new.json")

	w, err := NewFileWatcher([]string{f, missing})
	require.NoError(t, err)
	info, err := os.Stat(f)
	require.NoError(t, err)
	w.lastModTimes[f] = info.ModTime()

	assert.Empty(t, w.checkFiles())

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(f, future, future))
	writeFile(t, dir, "new.json", "{}")

	events := w.checkFiles()
	require.Len(t, events, 2)
	assert.Equal(t, FileOpWrite, events[0].Op)
	assert.Equal(t, FileOpCreate, events[1].Op)

	require.NoError(t, os.Remove(f))
	events = w.checkFiles()
	require.Len(t, events, 1)
	assert.Equal(t, FileOpRemove, events[0].Op)
	assert.Equal(t, "REMOVE", events[0].Op.String())
}

func TestFileWatcher_DispatchesChange(t *testing.T) {
	f := writeFile(t, t.TempDir(), "flow.json", "{}")

	w, err := NewFileWatcher([]string{f},
		WithPollInterval(10*time.Millisecond),
		WithDebounceDelay(20*time.Millisecond),
	)
	require.NoError(t, err)

	got := make(chan FileEvent, 4)
	w.OnChange(func(evt FileEvent) { got <- evt })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(ctx), "second start is rejected")

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(f, future, future))

	select {
	case evt := <-got:
		assert.Equal(t, f, evt.Path)
		assert.Equal(t, FileOpWrite, evt.Op)
	case <-time.After(2 * time.Second):
		t.Fatal("no change event dispatched")
	}

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
	require.NoError(t, w.Stop())
}
