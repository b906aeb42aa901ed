package grouper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/atikulmunna/logdeck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func names(files []model.LogFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestParseName(t *testing.T) {
	cases := []struct {
		name string
		key  string
		roll int
		ok   bool
	}{
		{"app.log", "app", 0, true},
		{"app.log.3", "app", 3, true},
		{"app.txt", "app", 0, true},
		{"worker.out.12", "worker", 12, true},
		{"stderr.ERR", "stderr", 0, true},
		{"app.log.lck", "", 0, false},
		{"app.log.owner", "", 0, false},
		{"notes.md", "", 0, false},
		{"app.log.gz", "", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, ok := parseName(tc.name)
			require.Equal(t, tc.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.key, p.groupKey)
			if tc.roll == 0 {
				assert.Nil(t, p.roll)
			} else {
				require.NotNil(t, p.roll)
				assert.Equal(t, tc.roll, *p.roll)
			}
		})
	}
}

func TestScanOrdersRolledFamily(t *testing.T) {
	dir := t.TempDir()
	// Written newest-first so creation order does not match read order.
	writeFile(t, filepath.Join(dir, "app.log"), "current\n")
	writeFile(t, filepath.Join(dir, "app.log.1"), "older\n")
	writeFile(t, filepath.Join(dir, "app.log.2"), "oldest\n")

	groups, err := Scan(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, "app", g.GroupName)
	assert.Equal(t, []string{"app.log.2", "app.log.1", "app.log"}, names(g.Files))
	assert.Equal(t, 3, g.FileCount)
	assert.Equal(t, int64(len("current\n")+len("older\n")+len("oldest\n")), g.TotalSize)
}

func TestScanGroupsAcrossFolders(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	writeFile(t, filepath.Join(a, "api.log"), "x\n")
	writeFile(t, filepath.Join(b, "nested", "api.log.1"), "y\n")
	writeFile(t, filepath.Join(b, "Worker.txt"), "z\n")
	writeFile(t, filepath.Join(b, "api.log.lck"), "")
	writeFile(t, filepath.Join(b, "readme.md"), "")

	groups, err := Scan(context.Background(), []string{a, b, a})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "api", groups[0].GroupName)
	assert.Equal(t, []string{"api.log.1", "api.log"}, names(groups[0].Files))
	assert.ElementsMatch(t, []string{a, filepath.Join(b, "nested")}, groups[0].Directories)

	assert.Equal(t, "Worker", groups[1].GroupName)
	assert.Equal(t, 3, CountFiles(groups))
}

func TestScanSortsGroupsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "beta.log"), "")
	writeFile(t, filepath.Join(dir, "Alpha.log"), "")
	writeFile(t, filepath.Join(dir, "gamma.out"), "")

	groups, err := Scan(context.Background(), []string{dir})
	require.NoError(t, err)

	var got []string
	for _, g := range groups {
		got = append(got, g.GroupName)
	}
	assert.Equal(t, []string{"Alpha", "beta", "gamma"}, got)
}

func TestScanSkipsMissingFolder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.log"), "")

	groups, err := Scan(context.Background(), []string{filepath.Join(dir, "missing"), dir})
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestScanRequiresFolders(t *testing.T) {
	_, err := Scan(context.Background(), nil)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}

func TestBuildGroupTieBreak(t *testing.T) {
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.Add(time.Hour)

	g := buildGroup("app", []model.LogFile{
		{Name: "app.log", Path: "/b/app.log", Directory: "/b", ModifiedTime: recent},
		{Name: "app.txt", Path: "/a/app.txt", Directory: "/a", ModifiedTime: old},
	})

	assert.Equal(t, []string{"app.txt", "app.log"}, names(g.Files))
	assert.Equal(t, recent, g.LastModified)
	assert.Equal(t, []string{"/a", "/b"}, g.Directories)
}

func TestBrowse(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.log"), "a\n")
	writeFile(t, filepath.Join(dir, "app.log.1"), "b\n")
	writeFile(t, filepath.Join(dir, ".hidden.log"), "")
	writeFile(t, filepath.Join(dir, "notes.md"), "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0755))

	// A log-named link to a directory is not a file.
	data := t.TempDir()
	require.NoError(t, os.Symlink(data, filepath.Join(dir, "linked.log")))
	res, err := Browse(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, res.Current)
	assert.Equal(t, filepath.Dir(dir), res.Parent)
	require.Len(t, res.Folders, 1)
	assert.Equal(t, "sub", res.Folders[0].Name)
	assert.Equal(t, []string{"app.log", "app.log.1"}, names(res.Files))
	require.Len(t, res.FileGroups, 1)
	assert.Equal(t, []string{"app.log.1", "app.log"}, names(res.FileGroups[0].Files))
}

func TestBrowseErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.log")
	writeFile(t, file, "")

	_, err := Browse(filepath.Join(dir, "nope"))
	assert.True(t, errors.Is(err, model.ErrNotFound))

	_, err = Browse(file)
	assert.True(t, errors.Is(err, model.ErrInvalidPath))
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.log"), "current\n")
	writeFile(t, filepath.Join(dir, "app.log.1"), "older\n")
	writeFile(t, filepath.Join(dir, "other.txt"), "x\n")

	paths, err := Resolve([]string{
		filepath.Join(dir, "other.txt"),
		filepath.Join(dir, "app.log*"),
		filepath.Join(dir, "app.log"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "other.txt"),
		filepath.Join(dir, "app.log.1"),
		filepath.Join(dir, "app.log"),
	}, paths)
}

func TestResolveErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Resolve(nil)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))

	_, err = Resolve([]string{filepath.Join(dir, "missing.log")})
	assert.True(t, errors.Is(err, model.ErrNotFound))

	_, err = Resolve([]string{dir})
	assert.True(t, errors.Is(err, model.ErrInvalidPath))
}

func TestScanFollowsSymlinksAndSkipsDangling(t *testing.T) {
	data := t.TempDir()
	target := filepath.Join(data, "real.log")
	writeFile(t, target, strings.Repeat("x", 5000))

	dir := t.TempDir()
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "app.log")))
	require.NoError(t, os.Symlink(filepath.Join(data, "gone.log"), filepath.Join(dir, "broken.log")))

	groups, err := Scan(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "app", groups[0].GroupName)
	require.Len(t, groups[0].Files, 1)
	assert.Equal(t, int64(5000), groups[0].Files[0].Size)
	assert.Equal(t, int64(5000), groups[0].TotalSize)

	// A log-named link to a directory is not a file.
	require.NoError(t, os.Symlink(data, filepath.Join(dir, "linked.log")))
	res, err := Browse(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.log"}, names(res.Files))
	assert.Equal(t, int64(5000), res.Files[0].Size)
}
