package aggregator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atikulmunna/logdeck/internal/model"
	"github.com/atikulmunna/logdeck/internal/parser"
)

const (
	inputBuffer = 1024
	window      = 5 * time.Second
)

// Stats holds a point-in-time snapshot of tail activity across all sessions.
type Stats struct {
	Uptime         string                `json:"uptime"`
	ActiveSessions int64                 `json:"active_sessions"`
	TotalLines     int64                 `json:"total_lines"`
	LPS            float64               `json:"lps"`
	LevelCounts    map[model.Level]int64 `json:"level_counts"`
	DroppedBatches int64                 `json:"dropped_batches"`
}

// Aggregator counts tailed lines by level and computes a sliding lines/sec rate.
// Sessions feed it through Observe, which never blocks.
type Aggregator struct {
	mu          sync.RWMutex
	startTime   time.Time
	totalLines  int64
	levelCounts map[model.Level]int64
	window      []sample

	parser   parser.Parser
	input    chan []string
	sessions atomic.Int64
	dropped  atomic.Int64
}

type sample struct {
	at    time.Time
	count int
}

// New creates an Aggregator that classifies lines with p.
func New(p parser.Parser) *Aggregator {
	return &Aggregator{
		startTime:   time.Now(),
		levelCounts: make(map[model.Level]int64),
		parser:      p,
		input:       make(chan []string, inputBuffer),
	}
}

// Observe queues a batch of tailed lines. Batches are dropped when the queue is full.
func (a *Aggregator) Observe(lines []string) {
	select {
	case a.input <- lines:
	default:
		a.dropped.Add(1)
	}
}

// SessionOpened and SessionClosed track connected sessions.
func (a *Aggregator) SessionOpened() { a.sessions.Add(1) }
func (a *Aggregator) SessionClosed() { a.sessions.Add(-1) }

// Snapshot returns the current metrics.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	// Copy level counts.
	counts := make(map[model.Level]int64, len(a.levelCounts))
	for k, v := range a.levelCounts {
		counts[k] = v
	}

	// Calculate LPS from the sliding window.
	cutoff := time.Now().Add(-window)
	var recent int
	for _, s := range a.window {
		if s.at.After(cutoff) {
			recent += s.count
		}
	}

	return Stats{
		Uptime:         time.Since(a.startTime).Truncate(time.Second).String(),
		ActiveSessions: a.sessions.Load(),
		TotalLines:     a.totalLines,
		LPS:            float64(recent) / window.Seconds(),
		LevelCounts:    counts,
		DroppedBatches: a.dropped.Load(),
	}
}

// Start consumes observed batches and updates metrics. Blocks until context is cancelled.
func (a *Aggregator) Start(ctx context.Context) {
	// Periodically prune the sliding window.
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case lines := <-a.input:
			a.record(lines)
		case <-ticker.C:
			a.prune()
		}
	}
}

// record classifies a batch and adds it to the metrics.
func (a *Aggregator) record(lines []string) {
	levels := make([]model.Level, len(lines))
	for i, l := range lines {
		levels[i] = a.parser.Parse(l, "").Level
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalLines += int64(len(lines))
	for _, lv := range levels {
		if lv != "" {
			a.levelCounts[lv]++
		}
	}
	a.window = append(a.window, sample{at: time.Now(), count: len(lines)})
}

// prune removes samples older than the window.
func (a *Aggregator) prune() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().Add(-window)
	i := 0
	for _, s := range a.window {
		if s.at.After(cutoff) {
			a.window[i] = s
			i++
		}
	}
	a.window = a.window[:i]
}
