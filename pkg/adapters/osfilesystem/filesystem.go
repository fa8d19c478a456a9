// Package osfilesystem implements ports.FileSystem on the local disk.
package osfilesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/user/timelapse/pkg/ports"
)

// FileSystem implements ports.FileSystem using the os package.
type FileSystem struct{}

// New creates a new FileSystem.
func New() *FileSystem {
	return &FileSystem{}
}

func (fsys *FileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data atomically: it writes a sibling temp file and
// renames it over path. Parent directories are created as needed.
func (fsys *FileSystem) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()[:8]))
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return multierr.Append(err, removeIfExists(tmp))
	}
	if err := os.Rename(tmp, path); err != nil {
		return multierr.Append(err, removeIfExists(tmp))
	}
	return nil
}

func (fsys *FileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func (fsys *FileSystem) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Remove deletes a file. A missing file is not an error.
func (fsys *FileSystem) Remove(path string) error {
	return removeIfExists(path)
}

func (fsys *FileSystem) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func (fsys *FileSystem) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return info.Size(), nil
}

func removeIfExists(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

var _ ports.FileSystem = (*FileSystem)(nil)
