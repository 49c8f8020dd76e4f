// Package localstore keeps client state in JSON files on disk, optionally
// sealed with AES-256-GCM.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/KumarDhananjaya/Spendly/internal/util"
)

// File is one JSON document of type T.
type File[T any] struct {
	mu   sync.Mutex
	path string
	key  string
}

// New returns a file handle. An empty key stores plain JSON.
func New[T any](path, key string) *File[T] {
	return &File[T]{path: path, key: key}
}

func (f *File[T]) Path() string { return f.path }

// Load reads the document. found is false when the file does not exist yet.
func (f *File[T]) Load() (v T, found bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("read %s: %w", f.path, err)
	}
	if f.key != "" {
		if data, err = util.DecryptAES(f.key, data); err != nil {
			return v, false, fmt.Errorf("decrypt %s: %w", f.path, err)
		}
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return v, true, nil
}

// Save replaces the document atomically through a temp file and rename.
func (f *File[T]) Save(v T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}
	if f.key != "" {
		if data, err = util.EncryptAES(f.key, data); err != nil {
			return fmt.Errorf("encrypt %s: %w", f.path, err)
		}
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Remove deletes the document. A missing file is not an error.
func (f *File[T]) Remove() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", f.path, err)
	}
	return nil
}
