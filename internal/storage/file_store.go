// Package storage persists synthesized audio.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDir is used when no output directory is configured.
const DefaultDir = "output"

// Store persists one audio payload under a file name and returns where it
// was written.
type Store interface {
	Save(data []byte, name string) (string, error)
}

// FileStore saves audio bytes to a local directory.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileStore{Dir: dir}
}

// Save writes data to {dir}/{name}, creating the directory when needed.
// Names must not escape the directory.
func (fs *FileStore) Save(data []byte, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: file name is required")
	}
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("storage: file name %q escapes output directory", name)
	}
	path := filepath.Join(fs.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("storage: create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", path, err)
	}
	return path, nil
}
