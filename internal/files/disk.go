// Package files stores uploaded artifacts on the local filesystem, addressed
// by a relative storage path.
package files

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrTooLarge         = errors.New("artifact exceeds size limit")
)

type DiskStorage struct {
	root string
	dir  string
}

// NewDiskStorage stores artifacts under root/dir and records paths as dir/<name>.
func NewDiskStorage(root, dir string) (*DiskStorage, error) {
	if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStorage{root: root, dir: dir}, nil
}

// UniqueName keeps the original extension and replaces the rest with a uuid.
func UniqueName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	return "file-" + uuid.NewString() + ext
}

// Save writes at most limit bytes; a larger body removes the partial file and fails.
func (d *DiskStorage) Save(name string, r io.Reader, limit int64) (storagePath string, size int64, err error) {
	storagePath = filepath.ToSlash(filepath.Join(d.dir, name))
	fullPath, err := d.resolve(storagePath)
	if err != nil {
		return "", 0, err
	}

	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create artifact: %w", err)
	}

	size, err = io.Copy(f, io.LimitReader(r, limit+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && size > limit {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return "", 0, err
	}
	return storagePath, size, nil
}

func (d *DiskStorage) Open(storagePath string) (*os.File, error) {
	fullPath, err := d.resolve(storagePath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrArtifactNotFound
	}
	return f, err
}

// Remove treats an already missing artifact as removed.
func (d *DiskStorage) Remove(storagePath string) error {
	fullPath, err := d.resolve(storagePath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (d *DiskStorage) resolve(storagePath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(storagePath))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage path %q", storagePath)
	}
	return filepath.Join(d.root, clean), nil
}
