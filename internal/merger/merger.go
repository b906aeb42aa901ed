// Package merger concatenates the files of a log group into one ordered line
// sequence with per-file markers, and performs bounded single-file reads.
package merger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atikulmunna/logdeck/internal/model"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"
)

// DefaultMaxReadBytes bounds how much of any one file is held in memory.
const DefaultMaxReadBytes int64 = 10 << 20

// Result is the outcome of merging a group of files.
type Result struct {
	Lines       []model.MergedLine `json:"lines"`
	TotalSize   int64              `json:"totalSize"`
	FileMarkers []model.FileMarker `json:"fileMarkers"`
	Digest      string             `json:"digest"` // xxh3 of the merged text
}

// Merger reads files with a per-file size cap.
type Merger struct {
	maxBytes int64
}

// New returns a Merger. A non-positive maxBytes selects DefaultMaxReadBytes.
func New(maxBytes int64) *Merger {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxReadBytes
	}
	return &Merger{maxBytes: maxBytes}
}

// Merge reads paths in the given order and concatenates their lines.
// Missing or unreadable files are skipped; Merge itself never fails.
func (m *Merger) Merge(paths []string) Result {
	res := Result{
		Lines:       []model.MergedLine{},
		FileMarkers: []model.FileMarker{},
	}
	h := xxh3.New()

	for _, path := range paths {
		data, size, truncated, err := readTail(path, m.maxBytes)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				log.Warn().Err(err).Str("path", path).Msg("skipping file in merge")
			}
			continue
		}

		name := filepath.Base(path)
		lines := SplitLines(string(data))
		res.FileMarkers = append(res.FileMarkers, model.FileMarker{
			FileName:  name,
			Path:      path,
			StartLine: len(res.Lines),
			LineCount: len(lines),
			Truncated: truncated,
		})
		for _, text := range lines {
			res.Lines = append(res.Lines, model.MergedLine{
				GlobalIndex:    len(res.Lines),
				Text:           text,
				SourceFileName: name,
			})
			_, _ = h.WriteString(text)
			_, _ = h.WriteString("\n")
		}
		res.TotalSize += size
	}

	res.Digest = strconv.FormatUint(h.Sum64(), 16)
	return res
}

// readTail returns at most max bytes from the end of the file, the file's
// on-disk size, and whether earlier content was left unread.
func readTail(path string, max int64) ([]byte, int64, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, false, err
	}
	if info.IsDir() {
		return nil, 0, false, fmt.Errorf("%s: %w", path, model.ErrInvalidPath)
	}

	size := info.Size()
	start := int64(0)
	if size > max {
		start = size - max
	}

	data, err := io.ReadAll(io.NewSectionReader(f, start, size-start))
	if err != nil {
		return nil, 0, false, err
	}
	return data, size, start > 0, nil
}

// SplitLines splits text on \n or \r\n and drops the single empty element
// produced by a final terminator. A \r not followed by \n is kept.
func SplitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	lines := strings.Split(text, "\n")
	last := len(lines) - 1
	for i := 0; i < last; i++ {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	if lines[last] == "" {
		lines = lines[:last]
	}
	return lines
}
