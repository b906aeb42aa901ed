package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/atikulmunna/logdeck/internal/merger"
	"github.com/atikulmunna/logdeck/internal/model"
	"github.com/atikulmunna/logdeck/internal/output"
	"github.com/atikulmunna/logdeck/internal/tailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilter(t *testing.T) {
	levelFilter, grepQuery, fromFlag, toFlag = "warn,error", "/disk/i", "2024-01-01T00:00:00Z", ""
	t.Cleanup(func() { levelFilter, grepQuery, fromFlag, toFlag = "", "", "", "" })

	f, err := buildFilter()
	require.NoError(t, err)
	assert.True(t, f.Levels[model.LevelWarn])
	assert.True(t, f.Levels[model.LevelError])
	assert.True(t, f.Matcher.Match("DISK full"))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), f.From.UTC())
	assert.True(t, f.To.IsZero())
}

func TestBuildFilterRejectsBadInput(t *testing.T) {
	t.Cleanup(func() { grepQuery, fromFlag = "", "" })

	grepQuery = "/[unclosed/"
	_, err := buildFilter()
	assert.True(t, errors.Is(err, model.ErrInvalidInput))

	grepQuery, fromFlag = "", "yesterday"
	_, err = buildFilter()
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFollowReloadsAfterTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("INFO old one\nINFO old two\n"), 0644))

	out := &syncBuffer{}
	v := &viewer{
		args:     []string{path},
		merger:   merger.New(0),
		renderer: output.NewJSONRenderer(out),
	}
	paths, err := v.render()
	require.NoError(t, err)
	require.Equal(t, []string{path}, paths)
	assert.Equal(t, 2, v.next)

	opts := tailer.DefaultOptions()
	opts.PollInterval = 50 * time.Millisecond
	engine := tailer.New(opts)
	_, err = engine.Start(path)
	require.NoError(t, err)
	defer engine.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.follow(ctx, engine) }()

	require.NoError(t, os.WriteFile(path, []byte("WARN new\n"), 0644))

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"text":"WARN new"`)
	}, 3*time.Second, 20*time.Millisecond)
	assert.Contains(t, out.String(), `"type":"notice"`)

	cancel()
	assert.NoError(t, <-done)
}
