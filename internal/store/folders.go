// Package store persists the ordered list of configured log folders.
package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"
)

const (
	bucketName = "config"
	foldersKey = "folders"
)

// FolderStore implements folder persistence using BoltDB.
type FolderStore struct {
	db *bbolt.DB
}

// Open opens or creates the database at dbPath.
func Open(dbPath string) (*FolderStore, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb (file may be locked by another process): %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	log.Debug().Str("db_path", dbPath).Msg("folder store opened")
	return &FolderStore{db: db}, nil
}

// List returns the configured folders in order.
func (s *FolderStore) List() ([]string, error) {
	folders := []string{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		raw := b.Get([]byte(foldersKey))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &folders)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}

// Replace stores folders as the full list. Blank entries are dropped and
// duplicates collapse onto their first position.
func (s *FolderStore) Replace(folders []string) error {
	raw, err := json.Marshal(normalize(folders))
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(foldersKey), raw)
	})
	if err != nil {
		return fmt.Errorf("failed to save folders: %w", err)
	}
	return nil
}

// Add appends a folder if it is not already present.
func (s *FolderStore) Add(folder string) error {
	current, err := s.List()
	if err != nil {
		return err
	}
	return s.Replace(append(current, folder))
}

// Remove deletes a folder from the list if present.
func (s *FolderStore) Remove(folder string) error {
	current, err := s.List()
	if err != nil {
		return err
	}
	target := filepath.Clean(folder)
	kept := current[:0]
	for _, f := range current {
		if f != target {
			kept = append(kept, f)
		}
	}
	return s.Replace(kept)
}

// Close closes the database.
func (s *FolderStore) Close() error {
	return s.db.Close()
}

func normalize(folders []string) []string {
	seen := make(map[string]bool, len(folders))
	out := make([]string, 0, len(folders))
	for _, f := range folders {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		f = filepath.Clean(f)
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
