package watcher

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Event represents a change to the watched file.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher monitors a single file using OS-level notifications.
//
// The parent directory is watched rather than the file itself so that
// rename-and-recreate rotation keeps producing events for the same path.
type Watcher struct {
	fsw    *fsnotify.Watcher
	Events chan Event
	path   string
}

// New creates a Watcher for path. The file's directory must exist.
func New(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		fsw:    fsw,
		Events: make(chan Event, 64),
		path:   abs,
	}, nil
}

// Start forwards events for the watched file. It blocks until the context is
// cancelled, then releases the OS watch and closes Events.
func (w *Watcher) Start(ctx context.Context) {
	defer func() {
		w.fsw.Close()
		close(w.Events)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			// Forward relevant events (write, create, remove, rename).
			switch {
			case ev.Op&fsnotify.Write != 0,
				ev.Op&fsnotify.Create != 0,
				ev.Op&fsnotify.Remove != 0,
				ev.Op&fsnotify.Rename != 0:
				select {
				case w.Events <- Event{Path: w.path, Op: ev.Op}:
				default:
					// A pending event already triggers a full re-stat.
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("path", w.path).Msg("watcher error")
		}
	}
}

// Close releases the OS watch without starting the event loop.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
