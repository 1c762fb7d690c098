package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore reads and writes plain filesystem paths. Writes create parent
// directories as needed, mirroring how output prefixes come into existence
// on object storage.
type LocalStore struct{}

// Read returns the file contents.
func (LocalStore) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Write stores data at path, creating parent directories.
func (LocalStore) Write(ctx context.Context, path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
