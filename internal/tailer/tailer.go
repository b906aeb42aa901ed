package tailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/atikulmunna/logdeck/internal/merger"
	"github.com/atikulmunna/logdeck/internal/model"
	"github.com/atikulmunna/logdeck/internal/watcher"
	"github.com/rs/zerolog/log"
)

// EventKind identifies what happened to the watched file.
type EventKind int

const (
	// NewLines carries complete lines appended since the last check.
	NewLines EventKind = iota
	// Truncated means the file shrank or was replaced; consumers should reload.
	Truncated
	// Error is a non-fatal failure while handling a change.
	Error
)

func (k EventKind) String() string {
	switch k {
	case NewLines:
		return "new-lines"
	case Truncated:
		return "truncated"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Event is emitted by the Engine for each observable change.
type Event struct {
	Kind       EventKind
	Path       string
	Generation uint64 // identifies the Start call that produced the event
	Lines      []string
	Err        error
}

// State of an Engine.
type State int

const (
	Idle State = iota
	Watching
)

// Options tune change detection.
type Options struct {
	// PollInterval bounds detection latency when no notification arrives.
	PollInterval time.Duration
	// ReconnectAttempts is how many poll ticks a vanished file may stay
	// missing before the watch gives up. Zero gives up on the first tick.
	ReconnectAttempts int
	// MaxReadBytes caps a single delta read; larger growth keeps only the tail.
	MaxReadBytes int64
	// EventBuffer is the capacity of the Events channel.
	EventBuffer int
}

// DefaultOptions returns the engine defaults. New substitutes them for
// non-positive fields, except a negative ReconnectAttempts.
func DefaultOptions() Options {
	return Options{
		PollInterval:      time.Second,
		ReconnectAttempts: 5,
		MaxReadBytes:      merger.DefaultMaxReadBytes,
		EventBuffer:       256,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.ReconnectAttempts < 0 {
		o.ReconnectAttempts = d.ReconnectAttempts
	}
	if o.MaxReadBytes <= 0 {
		o.MaxReadBytes = d.MaxReadBytes
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = d.EventBuffer
	}
	return o
}

// Engine tails at most one file at a time and emits typed events for appended
// lines, truncation/rotation, and per-event errors.
//
// The Events channel lives as long as the Engine and is never closed; a new
// Start implicitly stops the previous watch.
type Engine struct {
	opts   Options
	events chan Event

	ctl sync.Mutex // serializes Start and Stop

	mu     sync.Mutex
	state  State
	path   string
	size   int64
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an idle Engine.
func New(opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		opts:   opts,
		events: make(chan Event, opts.EventBuffer),
	}
}

// Events returns the channel events are delivered on, in order.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Start begins watching path from its current size and returns the watch
// generation stamped on every event it produces.
func (e *Engine) Start(path string) (uint64, error) {
	if path == "" {
		return 0, fmt.Errorf("tail: empty path: %w", model.ErrInvalidInput)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("tail %s: %w", path, model.ErrInvalidPath)
	}

	e.ctl.Lock()
	defer e.ctl.Unlock()
	e.stopLocked()

	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("tail %s: %w", abs, model.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("tail %s: %w", abs, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("tail %s: is a directory: %w", abs, model.ErrInvalidPath)
	}

	w, err := watcher.New(abs)
	if err != nil {
		return 0, fmt.Errorf("tail %s: %w", abs, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.state = Watching
	e.path = abs
	e.size = info.Size()
	e.cancel = cancel
	e.done = done
	e.mu.Unlock()

	log.Debug().Str("path", abs).Int64("size", info.Size()).Uint64("gen", gen).Msg("tail started")

	t := &tracked{path: abs, gen: gen, prev: info, size: info.Size()}
	go e.run(ctx, done, w, t)
	return gen, nil
}

// Stop releases the current watch, if any, and returns once it is gone.
func (e *Engine) Stop() {
	e.ctl.Lock()
	defer e.ctl.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	e.mu.Lock()
	e.state = Idle
	e.mu.Unlock()
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Session returns a snapshot of the watch.
func (e *Engine) Session() model.TailSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.TailSession{
		WatchedPath:   e.path,
		LastKnownSize: e.size,
		Active:        e.state == Watching,
	}
}

// tracked is the per-watch state owned by the run goroutine.
type tracked struct {
	path    string
	gen     uint64
	prev    os.FileInfo
	size    int64
	missing int
}

// run owns one watch until ctx is cancelled or the file is gone for good.
func (e *Engine) run(ctx context.Context, done chan struct{}, w *watcher.Watcher, t *tracked) {
	defer close(done)

	wctx, wcancel := context.WithCancel(ctx)
	defer func() {
		wcancel()
		_ = w.Close()
	}()
	go w.Start(wctx)

	ticker := time.NewTicker(e.opts.PollInterval)
	defer ticker.Stop()

	notify := w.Events
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-notify:
			if !ok {
				notify = nil
				continue
			}
			if !e.check(ctx, t, false) {
				e.finish(t.gen)
				return
			}
		case <-ticker.C:
			if !e.check(ctx, t, true) {
				e.finish(t.gen)
				return
			}
		}
	}
}

// check re-stats the file and emits whatever changed. It returns false when
// the watch should end.
func (e *Engine) check(ctx context.Context, t *tracked, tick bool) bool {
	info, err := os.Stat(t.path)
	if errors.Is(err, os.ErrNotExist) {
		if !tick {
			return true
		}
		t.missing++
		if t.missing > e.opts.ReconnectAttempts {
			log.Warn().Str("path", t.path).Int("attempts", t.missing).Msg("tailed file did not reappear")
			e.emit(ctx, t, Event{Kind: Error, Err: fmt.Errorf("%s: %w", t.path, model.ErrNotFound)})
			return false
		}
		return true
	}
	if err != nil {
		e.emit(ctx, t, Event{Kind: Error, Err: fmt.Errorf("stat %s: %w", t.path, err)})
		return true
	}

	replaced := t.missing > 0 || !os.SameFile(t.prev, info)
	t.missing = 0
	newSize := info.Size()

	switch {
	case replaced || newSize < t.size:
		log.Debug().
			Str("path", t.path).
			Int64("old_size", t.size).
			Int64("new_size", newSize).
			Bool("replaced", replaced).
			Msg("tailed file truncated or rotated")
		e.emit(ctx, t, Event{Kind: Truncated})
		t.size = newSize

	case newSize > t.size:
		lines, err := readRange(t.path, t.size, newSize, e.opts.MaxReadBytes)
		if err != nil {
			e.emit(ctx, t, Event{Kind: Error, Err: fmt.Errorf("read %s: %w", t.path, err)})
			return true
		}
		if len(lines) > 0 {
			e.emit(ctx, t, Event{Kind: NewLines, Lines: lines})
		}
		t.size = newSize
	}

	t.prev = info
	e.mu.Lock()
	if e.gen == t.gen {
		e.size = t.size
	}
	e.mu.Unlock()
	return true
}

// finish marks a self-terminated watch idle.
func (e *Engine) finish(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen == gen {
		e.state = Idle
	}
}

func (e *Engine) emit(ctx context.Context, t *tracked, ev Event) {
	ev.Path = t.path
	ev.Generation = t.gen
	select {
	case e.events <- ev:
	case <-ctx.Done():
	}
}

// readRange reads bytes [from, to) and returns the non-empty lines in it.
// When the range exceeds max only its last max bytes are read.
func readRange(path string, from, to, max int64) ([]string, error) {
	if to-from > max {
		from = to - max
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.NewSectionReader(f, from, to-from))
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, l := range merger.SplitLines(string(data)) {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}
