// Package filestore persists the application document as a single JSON
// file on disk.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/overseer-hq/overseer/internal/domain/state"
	"github.com/overseer-hq/overseer/internal/port/statestore"
)

// Store writes the document to a JSON file. Saves go through a temp
// file in the same directory followed by a rename, so a crash mid-write
// leaves either the previous document or the new one, never a torn file.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a file-backed document store at path. The parent directory
// is created on the first Save if it does not exist.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads and decodes the persisted document. A missing file returns
// statestore.ErrNotFound so callers can start from an empty document.
func (s *Store) Load(_ context.Context) (*state.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, statestore.ErrNotFound
		}
		return nil, fmt.Errorf("read document: %w", err)
	}

	var doc state.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// Save atomically replaces the persisted document.
func (s *Store) Save(_ context.Context, doc *state.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// Close implements the store port. The file store holds no resources
// between calls.
func (s *Store) Close() error { return nil }
