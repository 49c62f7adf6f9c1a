package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last file event
// before reloading, so editors that write in several steps trigger one
// reload instead of a storm.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches mock files and triggers a reload callback when any of
// them change. A failed reload keeps the previous registry serving; the
// swap only happens inside a callback that loaded successfully.
type Watcher struct {
	fsw      *fsnotify.Watcher
	log      *slog.Logger
	files    map[string]bool
	debounce time.Duration
}

// NewWatcher creates a watcher over the given mock files. The parent
// directories are watched, because editors typically replace files by
// rename and fsnotify drops watches on replaced inodes.
func NewWatcher(paths []string, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		log:      log,
		files:    make(map[string]bool),
		debounce: DefaultDebounce,
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run processes file events until the context is cancelled, invoking
// reload after a debounced burst of changes. Reload errors are logged and
// do not stop the watcher.
func (w *Watcher) Run(ctx context.Context, reload func() error) {
	defer func() { _ = w.fsw.Close() }()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("mock file changed", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", "error", err)

		case <-fire:
			fire = nil
			if err := reload(); err != nil {
				w.log.Error("reload failed, keeping previous mocks", "error", err)
			} else {
				w.log.Info("mocks reloaded")
			}
		}
	}
}

// relevant filters directory events down to the watched mock files.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}
