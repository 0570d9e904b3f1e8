package kvstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"flexipdf/internal/flexi"
)

// tempPrefix marks in-flight writes. Valid keys never start with a dot, so
// temp files can't collide with stored keys.
const tempPrefix = ".tmp-"

// FileSystemStore keeps one file per key under a root directory:
//
//	<root>/
//	  pdfFiles_v1
//	  folders_v1
//	  currentFolderId_v1
//
// Writes go to a temp file in the same directory and are renamed into place,
// so readers see either the previous value or the new one.
type FileSystemStore struct {
	root string
}

// NewFileSystemStore creates a store rooted at root, creating the directory if needed.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileSystemStore{root: root}, nil
}

// Root returns the directory the store writes into.
func (s *FileSystemStore) Root() string {
	return s.root
}

func (s *FileSystemStore) Get(_ context.Context, key string) (string, bool, error) {
	if err := ValidateKey(key); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading key %s: %w", key, err)
	}
	return string(data), true, nil
}

func (s *FileSystemStore) Put(_ context.Context, key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return s.writeFile(filepath.Join(s.root, key), value)
}

func (s *FileSystemStore) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting key %s: %w", key, err)
	}
	return nil
}

func (s *FileSystemStore) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("listing store directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		keys = append(keys, entry.Name())
	}
	return keys, nil
}

// Close is a no-op; every operation opens and closes its own file.
func (s *FileSystemStore) Close() error {
	return nil
}

// writeFile writes value to destPath using atomic write (temp file + rename).
func (s *FileSystemStore) writeFile(destPath, value string) error {
	tmpFile, err := os.CreateTemp(s.root, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.WriteString(value); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemStore implements flexi.KVStore interface
var _ flexi.KVStore = (*FileSystemStore)(nil)
