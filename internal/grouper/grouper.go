// Package grouper discovers log files under folders and partitions them into
// rolled families (app.log, app.log.1, app.log.2 -> group "app").
package grouper

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/atikulmunna/logdeck/internal/model"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
)

// scanPattern selects every file at any depth; names are filtered by parseName.
const scanPattern = "**/*"

// Scan walks every folder recursively and groups the eligible log files found.
// Unreadable folders and files are skipped; only an empty folder list is an error.
func Scan(ctx context.Context, folders []string) ([]model.LogGroup, error) {
	if len(folders) == 0 {
		return nil, fmt.Errorf("scan: no folders given: %w", model.ErrInvalidInput)
	}

	seen := make(map[string]bool)
	var files []model.LogFile

	for _, folder := range folders {
		root, err := filepath.Abs(folder)
		if err != nil {
			log.Warn().Err(err).Str("folder", folder).Msg("skipping folder")
			continue
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			log.Warn().Err(err).Str("folder", root).Msg("skipping folder: not a readable directory")
			continue
		}

		found, err := walkFolder(ctx, root, seen)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	groups := groupFiles(files)
	log.Debug().
		Int("folders", len(folders)).
		Int("files", len(files)).
		Int("groups", len(groups)).
		Msg("scan complete")
	return groups, nil
}

// walkFolder collects eligible files under root. Per-file failures are logged and skipped.
func walkFolder(ctx context.Context, root string, seen map[string]bool) ([]model.LogFile, error) {
	var files []model.LogFile

	err := doublestar.GlobWalk(os.DirFS(root), scanPattern, func(rel string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(root, filepath.FromSlash(rel))
		if seen[path] {
			return nil
		}

		f, ok := fileFromEntry(path, d)
		if !ok {
			return nil
		}
		seen[path] = true
		files = append(files, f)
		return nil
	}, doublestar.WithFilesOnly())
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		log.Warn().Err(err).Str("folder", root).Msg("scan of folder ended early")
	}
	return files, nil
}

// fileFromEntry builds a LogFile snapshot, or reports false if the entry is
// not an eligible log file or cannot be stat'ed. Symlinks are followed; a
// dangling link or a link to a directory is skipped.
func fileFromEntry(path string, d fs.DirEntry) (model.LogFile, bool) {
	name := d.Name()
	parsed, ok := parseName(name)
	if !ok {
		return model.LogFile{}, false
	}

	info, err := os.Stat(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("skipping unreadable file")
		return model.LogFile{}, false
	}
	if info.IsDir() {
		return model.LogFile{}, false
	}

	return model.LogFile{
		Name:         name,
		Path:         path,
		Directory:    filepath.Dir(path),
		Size:         info.Size(),
		ModifiedTime: info.ModTime(),
		RollNumber:   parsed.roll,
	}, true
}

// groupFiles partitions files by group key and orders files and groups canonically.
func groupFiles(files []model.LogFile) []model.LogGroup {
	byKey := make(map[string][]model.LogFile)
	for _, f := range files {
		key := GroupKey(f.Name)
		byKey[key] = append(byKey[key], f)
	}

	groups := make([]model.LogGroup, 0, len(byKey))
	for key, members := range byKey {
		groups = append(groups, buildGroup(key, members))
	}

	sort.Slice(groups, func(i, j int) bool {
		a, b := strings.ToLower(groups[i].GroupName), strings.ToLower(groups[j].GroupName)
		if a != b {
			return a < b
		}
		return groups[i].GroupName < groups[j].GroupName
	})
	return groups
}

// buildGroup orders members oldest to newest: highest roll number first,
// the current file (roll 0) last.
func buildGroup(name string, members []model.LogFile) model.LogGroup {
	files := append([]model.LogFile(nil), members...)
	sort.SliceStable(files, func(i, j int) bool {
		ri, rj := files[i].Roll(), files[j].Roll()
		if ri != rj {
			return ri > rj
		}
		if !files[i].ModifiedTime.Equal(files[j].ModifiedTime) {
			return files[i].ModifiedTime.Before(files[j].ModifiedTime)
		}
		return files[i].Path < files[j].Path
	})

	g := model.LogGroup{
		GroupName: name,
		Files:     files,
		FileCount: len(files),
	}

	dirs := make(map[string]bool)
	var latest time.Time
	for _, f := range files {
		g.TotalSize += f.Size
		if f.ModifiedTime.After(latest) {
			latest = f.ModifiedTime
		}
		if !dirs[f.Directory] {
			dirs[f.Directory] = true
			g.Directories = append(g.Directories, f.Directory)
		}
	}
	sort.Strings(g.Directories)
	g.LastModified = latest
	return g
}

// CountFiles returns the total number of files across groups.
func CountFiles(groups []model.LogGroup) int {
	n := 0
	for _, g := range groups {
		n += g.FileCount
	}
	return n
}
