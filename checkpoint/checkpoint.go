// Package checkpoint persists the crawl position in an env-style file.
package checkpoint

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Store reads and writes a single page-index key in an env file. The file
// survives the process, so a crash loses at most the in-flight page.
type Store struct {
	path string
	key  string
}

// New builds a checkpoint store for one named key.
func New(path, key string) *Store {
	return &Store{path: path, key: key}
}

// Load returns the last durably merged page index, defaulting to 0 when the
// file or the key is absent.
func (s *Store) Load() (int, error) {
	values, err := godotenv.Read(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read checkpoint file: %w", err)
	}

	raw, ok := values[s.key]
	if !ok || raw == "" {
		return 0, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse checkpoint %s=%q: %w", s.key, raw, err)
	}
	if page < 0 {
		return 0, fmt.Errorf("checkpoint %s=%d cannot be negative", s.key, page)
	}
	return page, nil
}

// Save overwrites the checkpoint with the given page index, preserving any
// unrelated keys already present in the file.
func (s *Store) Save(page int) error {
	values, err := godotenv.Read(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read checkpoint file: %w", err)
		}
		values = map[string]string{}
	}

	values[s.key] = strconv.Itoa(page)
	if err := godotenv.Write(values, s.path); err != nil {
		return fmt.Errorf("write checkpoint file: %w", err)
	}
	return nil
}
