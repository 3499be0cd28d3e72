package keystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"unicred/pkg/platform/sentinel"
)

// FileStore persists the issuer key as a JSON file, the default side-channel
// for single-node deployments.
type FileStore struct {
	path string
}

// NewFileStore constructs a file-backed key persistence at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (*StoredKey, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read key file: %w", err)
	}
	var key StoredKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, fmt.Errorf("parse key file: %w", err)
	}
	return &key, nil
}

func (s *FileStore) Save(_ context.Context, key *StoredKey) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	raw, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	// Write-then-rename so a crash never leaves a truncated key file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit key file: %w", err)
	}
	return nil
}
