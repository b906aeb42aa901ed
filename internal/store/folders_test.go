package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) (*FolderStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logdeck.db")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestFolderStoreEmpty(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()

	folders, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func TestFolderStorePersistsOrder(t *testing.T) {
	s, path := openStore(t)

	require.NoError(t, s.Replace([]string{"/var/log/b", " ", "/var/log/a/", "/var/log/b"}))
	require.NoError(t, s.Add("/srv/logs"))
	require.NoError(t, s.Add("/var/log/a"))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	folders, err := s2.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"/var/log/b", "/var/log/a", "/srv/logs"}, folders)

	require.NoError(t, s2.Remove("/var/log/a/"))
	folders, err = s2.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"/var/log/b", "/srv/logs"}, folders)
}
