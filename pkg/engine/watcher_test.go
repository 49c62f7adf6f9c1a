package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textmock/textmock/pkg/logging"
)

func TestWatcherTriggersReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.mock")
	require.NoError(t, os.WriteFile(path, []byte("GET /a\nHTTP 200\n"), 0o644))

	w, err := NewWatcher([]string{path}, logging.Nop())
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	reloaded := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, func() error {
		select {
		case reloaded <- struct{}{}:
		default:
		}
		return nil
	})

	// Let the watcher settle before mutating.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("GET /b\nHTTP 200\n"), 0o644))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("reload was not triggered by a file write")
	}
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "api.mock")
	unrelated := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(watched, []byte("GET /a\nHTTP 200\n"), 0o644))

	w, err := NewWatcher([]string{watched}, logging.Nop())
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	reloaded := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, func() error {
		select {
		case reloaded <- struct{}{}:
		default:
		}
		return nil
	})

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(unrelated, []byte("scratch"), 0o644))

	select {
	case <-reloaded:
		t.Fatal("reload triggered by an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherSurvivesReloadError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.mock")
	require.NoError(t, os.WriteFile(path, []byte("GET /a\nHTTP 200\n"), 0o644))

	w, err := NewWatcher([]string{path}, logging.Nop())
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	calls := make(chan int, 8)
	n := 0
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, func() error {
		n++
		calls <- n
		if n == 1 {
			return assert.AnError
		}
		return nil
	})

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("broken"), 0o644))
	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("first reload not triggered")
	}

	// The watcher keeps running after a failed reload.
	require.NoError(t, os.WriteFile(path, []byte("GET /b\nHTTP 200\n"), 0o644))
	select {
	case got := <-calls:
		assert.Equal(t, 2, got)
	case <-time.After(5 * time.Second):
		t.Fatal("second reload not triggered after a failed one")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	_, err := NewWatcher([]string{"/nonexistent/dir/api.mock"}, logging.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watching")
}
