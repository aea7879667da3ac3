package cursor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"alert-monitor/internal/models"
)

// FileBackend stores the cursor as a JSON document on local disk.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend writing to path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Name implements Backend.
func (f *FileBackend) Name() string { return "file" }

// Load reads the cursor. A missing file yields an empty cursor.
func (f *FileBackend) Load(ctx context.Context) (models.Cursor, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return models.Cursor{}, nil
	}
	if err != nil {
		return models.Cursor{}, fmt.Errorf("read %s: %w", f.path, err)
	}
	var c models.Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return models.Cursor{}, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return c, nil
}

// Save writes the cursor atomically: temp file, fsync, rename.
func (f *FileBackend) Save(ctx context.Context, c models.Cursor) error {
	if c.SeenIDs == nil {
		c.SeenIDs = []int64{}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cursor: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}
