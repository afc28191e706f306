// Package settings persists the user's preference blob. The snapshot
// carries preferences as plain data; this package is only the opaque
// byte-level storage behind them.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Keeper stores and loads one opaque blob.
type Keeper interface {
	// Load returns the stored blob, or nil when nothing is stored yet.
	Load() ([]byte, error)
	// Store replaces the stored blob.
	Store(blob []byte) error
}

// FileKeeper persists the blob to a single file.
type FileKeeper struct {
	Path string
}

// NewFileKeeper builds a keeper writing to path, creating the parent
// directory on first store.
func NewFileKeeper(path string) *FileKeeper {
	return &FileKeeper{Path: path}
}

func (k *FileKeeper) Load() ([]byte, error) {
	blob, err := os.ReadFile(k.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return blob, nil
}

func (k *FileKeeper) Store(blob []byte) error {
	if err := os.MkdirAll(filepath.Dir(k.Path), 0o755); err != nil {
		return fmt.Errorf("store settings: %w", err)
	}
	if err := os.WriteFile(k.Path, blob, 0o600); err != nil {
		return fmt.Errorf("store settings: %w", err)
	}
	return nil
}

// MemoryKeeper keeps the blob in memory. Test use.
type MemoryKeeper struct {
	Blob []byte
}

func (k *MemoryKeeper) Load() ([]byte, error) { return k.Blob, nil }

func (k *MemoryKeeper) Store(blob []byte) error {
	k.Blob = append([]byte(nil), blob...)
	return nil
}
