// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/stacklok/tokencore/pkg/fileutils"
)

const keyFileExtension = ".json"

// FileKeyStore keeps each signing key in its own JSON file. Writes are
// atomic renames, so concurrent readers see either the old or new file.
// Cross-process writers coordinate through a lock.FileLock on the same
// directory.
type FileKeyStore struct {
	dir string
}

var _ SigningKeyStore = (*FileKeyStore)(nil)

// NewFileKeyStore creates dir if needed and returns a store rooted at it.
func NewFileKeyStore(dir string) (*FileKeyStore, error) {
	if dir == "" {
		return nil, errors.New("key directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	return &FileKeyStore{dir: dir}, nil
}

// Dir returns the directory holding the key files.
func (s *FileKeyStore) Dir() string {
	return s.dir
}

// LoadKeys reads every key file in the directory. Files that are not key
// files are ignored.
func (s *FileKeyStore) LoadKeys(_ context.Context) ([]SerializedKey, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read key directory: %w", err)
	}

	var keys []SerializedKey
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, keyFileExtension) || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			// deleted between ReadDir and ReadFile
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read key file %s: %w", name, err)
		}
		var key SerializedKey
		if err := json.Unmarshal(data, &key); err != nil {
			return nil, fmt.Errorf("failed to unmarshal key file %s: %w", name, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// StoreKey writes the key to <dir>/<id>.json.
func (s *FileKeyStore) StoreKey(_ context.Context, key SerializedKey) error {
	path, err := s.keyPath(key.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(key, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal signing key: %w", err)
	}
	if err := fileutils.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write signing key: %w", err)
	}
	return nil
}

// DeleteKey removes the key file. A missing file is not an error.
func (s *FileKeyStore) DeleteKey(_ context.Context, id string) error {
	path, err := s.keyPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete signing key: %w", err)
	}
	return nil
}

func (s *FileKeyStore) keyPath(id string) (string, error) {
	if err := fileutils.ValidateKeyIDForPath(id); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, id+keyFileExtension), nil
}
