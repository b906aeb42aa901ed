package merger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atikulmunna/logdeck/internal/model"
)

// ReadResult is a bounded slice of one file.
type ReadResult struct {
	Lines     []string `json:"lines"`
	TotalSize int64    `json:"totalSize"`
	Offset    int64    `json:"offset"` // resume position for the next call
	FileName  string   `json:"fileName"`
	Truncated bool     `json:"truncated,omitempty"`
}

// Read returns up to the merger's cap of bytes from path starting at offset.
// Offset 0 on an oversized file reads the last cap bytes instead, so the most
// recent content is shown first.
func (m *Merger) Read(path string, offset int64) (ReadResult, error) {
	if path == "" {
		return ReadResult{}, fmt.Errorf("read: empty path: %w", model.ErrInvalidInput)
	}
	if offset < 0 {
		return ReadResult{}, fmt.Errorf("read: negative offset %d: %w", offset, model.ErrInvalidInput)
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return ReadResult{}, fmt.Errorf("read %s: %w", path, model.ErrNotFound)
	}
	if err != nil {
		return ReadResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ReadResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	if info.IsDir() {
		return ReadResult{}, fmt.Errorf("read %s: is a directory: %w", path, model.ErrInvalidPath)
	}

	size := info.Size()
	res := ReadResult{
		Lines:     []string{},
		TotalSize: size,
		FileName:  filepath.Base(path),
	}
	if offset >= size {
		res.Offset = size
		return res, nil
	}

	start, end := offset, offset+m.maxBytes
	if offset == 0 && size > m.maxBytes {
		start, end = size-m.maxBytes, size
		res.Truncated = true
	}
	if end > size {
		end = size
	}

	data, err := io.ReadAll(io.NewSectionReader(f, start, end-start))
	if err != nil {
		return ReadResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	res.Lines = SplitLines(string(data))
	res.Offset = end
	return res, nil
}
