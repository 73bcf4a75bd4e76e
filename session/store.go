// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielhkuo/listgen/models"
)

// ErrNoState is returned by a Persister that has never been saved to
var ErrNoState = errors.New("no persisted state")

// Persister reads and writes the whole state document
type Persister interface {
	Load(ctx context.Context) (models.PersistedState, error)
	Save(ctx context.Context, state models.PersistedState) error
}

// PersistenceError reports a failed read or write of the state.
// It is a warning: the in-memory state remains usable.
type PersistenceError struct {
	Op  string // "load" or "save"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("session %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// FileStore keeps the state in a single JSON file
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the state file location
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the state file. A missing file yields ErrNoState.
func (f *FileStore) Load(ctx context.Context) (models.PersistedState, error) {
	var ps models.PersistedState
	if err := ctx.Err(); err != nil {
		return ps, err
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return ps, ErrNoState
	}
	if err != nil {
		return ps, fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(data, &ps); err != nil {
		return models.PersistedState{}, fmt.Errorf("failed to parse state file: %w", err)
	}
	return ps, nil
}

// Save overwrites the state file. The document is written to a temp file in
// the same directory and renamed over the target, so readers see either the
// old or the new state.
func (f *FileStore) Save(ctx context.Context, state models.PersistedState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
