package iocache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/schema"
)

// JSONSnapshotStore persists the cache as a single JSON file in the output
// directory. It is the default backend: zero setup, and the snapshot travels
// with the rest of the run artifacts.
type JSONSnapshotStore struct {
	path string
}

var _ contract.CacheStore = &JSONSnapshotStore{} // Compile-time check

// NewJSONSnapshotStore creates a store writing to path.
func NewJSONSnapshotStore(path string) *JSONSnapshotStore {
	return &JSONSnapshotStore{path: path}
}

// Load implements the CacheStore interface. A missing file is not an error;
// it just means a cold start.
func (s *JSONSnapshotStore) Load() (*schema.CacheSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	var snapshot schema.CacheSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", s.path, err)
	}
	return &snapshot, nil
}

// Persist implements the CacheStore interface. The write goes to a sibling
// temp file first so a crash mid-write never corrupts the previous snapshot.
func (s *JSONSnapshotStore) Persist(snapshot *schema.CacheSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".pmd_cache-*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Status implements the CacheStore interface.
func (s *JSONSnapshotStore) Status() (schema.CacheStatus, error) {
	status := schema.CacheStatus{
		Backend:      schema.JSONBackend,
		SnapshotPath: s.path,
	}
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return status, nil
	}
	if err != nil {
		return status, err
	}
	status.Connected = true
	status.SnapshotBytes = info.Size()
	status.LastPersist = info.ModTime()

	snapshot, err := s.Load()
	if err != nil {
		return status, err
	}
	if snapshot != nil {
		status.TotalEntries = len(snapshot.Entries)
	}
	return status, nil
}

// Clear implements the CacheStore interface.
func (s *JSONSnapshotStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove snapshot %s: %w", s.path, err)
	}
	return nil
}

// Close implements the CacheStore interface.
func (s *JSONSnapshotStore) Close() error {
	return nil
}

// NoopStore disables cache persistence entirely. Lookups within one run
// still hit the in-memory cache; nothing survives the process.
type NoopStore struct{}

var _ contract.CacheStore = &NoopStore{} // Compile-time check

// NewNoopStore creates a no-op store.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

// Load implements the CacheStore interface.
func (s *NoopStore) Load() (*schema.CacheSnapshot, error) {
	return nil, nil
}

// Persist implements the CacheStore interface.
func (s *NoopStore) Persist(*schema.CacheSnapshot) error {
	return nil
}

// Status implements the CacheStore interface.
func (s *NoopStore) Status() (schema.CacheStatus, error) {
	return schema.CacheStatus{Backend: schema.NoneBackend}, nil
}

// Clear implements the CacheStore interface.
func (s *NoopStore) Clear() error {
	return nil
}

// Close implements the CacheStore interface.
func (s *NoopStore) Close() error {
	return nil
}
