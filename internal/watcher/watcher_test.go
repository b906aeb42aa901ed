package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherForwardsOnlyTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	w, err := New(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.log"), []byte("x\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("y\n"), 0644))

	select {
	case ev := <-w.Events:
		assert.Equal(t, path, ev.Path)
		assert.NotZero(t, ev.Op&(fsnotify.Write|fsnotify.Create))
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watcher event")
	}
}

func TestWatcherClosesEventsOnCancel(t *testing.T) {
	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "app.log"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-w.Events:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "app.log"))
	assert.Error(t, err)
}
