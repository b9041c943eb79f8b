// Package store persists the accumulated, deduplicated result collection.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"steam-market-crawler/models"
)

// Sink receives each page's batch of normalized records and reports how many
// were new plus the total now stored.
type Sink interface {
	Merge(ctx context.Context, records []*models.Record) (added, total int, err error)
}

// FileStore accumulates records in a single JSON document. Every merge
// re-reads and atomically rewrites the whole document; the trade-off is
// write amplification in exchange for holding no collection state in memory
// between pages.
type FileStore struct {
	path string
}

// NewFileStore builds a store for one output target.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the output target location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the existing collection. A missing file is an empty collection.
// An unparseable file is logged and also treated as empty, so the next merge
// replaces it; prior data is lost from the store's view.
func (s *FileStore) Load() ([]*models.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store %s: %w", s.path, err)
	}

	var records []*models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Warn("store file is corrupt, starting from an empty collection",
			slog.String("path", s.path),
			slog.Any("error", err),
		)
		return nil, nil
	}
	return records, nil
}

// Merge appends the strictly novel records from the batch, preserving the
// order of records already present and the production order of new ones,
// then writes the combined collection back as a single atomic replace.
// An empty batch still rewrites the document, confirming the target exists.
func (s *FileStore) Merge(_ context.Context, records []*models.Record) (int, int, error) {
	existing, err := s.Load()
	if err != nil {
		return 0, 0, err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		seen[r.Key()] = struct{}{}
	}

	combined := existing
	added := 0
	for _, r := range records {
		if r == nil {
			continue
		}
		if _, ok := seen[r.Key()]; ok {
			continue
		}
		seen[r.Key()] = struct{}{}
		combined = append(combined, r)
		added++
	}

	if err := s.writeAtomic(combined); err != nil {
		return 0, 0, err
	}
	return added, len(combined), nil
}

func (s *FileStore) writeAtomic(records []*models.Record) error {
	if err := ensureDir(s.path); err != nil {
		return err
	}

	if records == nil {
		records = []*models.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
