package grouper

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atikulmunna/logdeck/internal/model"
	"github.com/rs/zerolog/log"
)

// FolderEntry is a subdirectory listed by Browse.
type FolderEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// BrowseResult is the listing of a single directory.
type BrowseResult struct {
	Current    string           `json:"current"`
	Parent     string           `json:"parent,omitempty"`
	Folders    []FolderEntry    `json:"folders"`
	Files      []model.LogFile  `json:"files"`
	FileGroups []model.LogGroup `json:"fileGroups"`
}

// Browse lists one directory without recursing. Dot-prefixed entries are
// skipped. An empty dir means the user's home directory.
func Browse(dir string) (BrowseResult, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return BrowseResult{}, fmt.Errorf("browse: resolve home: %w", err)
		}
		dir = home
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return BrowseResult{}, fmt.Errorf("browse %s: %w", dir, model.ErrInvalidPath)
	}

	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return BrowseResult{}, fmt.Errorf("browse %s: %w", abs, model.ErrNotFound)
	}
	if err != nil {
		return BrowseResult{}, fmt.Errorf("browse %s: %w", abs, err)
	}
	if !info.IsDir() {
		return BrowseResult{}, fmt.Errorf("browse %s: not a directory: %w", abs, model.ErrInvalidPath)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return BrowseResult{}, fmt.Errorf("browse %s: %w", abs, err)
	}

	res := BrowseResult{
		Current: abs,
		Folders: []FolderEntry{},
		Files:   []model.LogFile{},
	}
	if parent := filepath.Dir(abs); parent != abs {
		res.Parent = parent
	}

	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(abs, e.Name())
		if e.IsDir() {
			res.Folders = append(res.Folders, FolderEntry{Name: e.Name(), Path: path})
			continue
		}
		if f, ok := fileFromEntry(path, e); ok {
			res.Files = append(res.Files, f)
		}
	}

	sort.Slice(res.Folders, func(i, j int) bool {
		return strings.ToLower(res.Folders[i].Name) < strings.ToLower(res.Folders[j].Name)
	})
	sort.Slice(res.Files, func(i, j int) bool {
		return res.Files[i].Name < res.Files[j].Name
	})
	res.FileGroups = groupFiles(res.Files)

	log.Debug().
		Str("dir", abs).
		Int("folders", len(res.Folders)).
		Int("files", len(res.Files)).
		Msg("browse")
	return res, nil
}
