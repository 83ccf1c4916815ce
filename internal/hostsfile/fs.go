package hostsfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteError represents a failed replacement of the hosts document.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write of '%s' failed: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// FileSystem abstracts the handful of filesystem operations the updater
// needs. Replace must be atomic from an external reader's point of view:
// a reader of path observes either the old bytes or the new bytes, never a
// partial write. Tests substitute a fake that can inject failures
// mid-operation.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Replace(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
}

// OSFileSystem implements FileSystem on the host filesystem.
type OSFileSystem struct{}

// NewOSFileSystem returns the real filesystem implementation.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// ReadFile reads the whole file.
func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// MkdirAll creates a directory and its parents.
func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Replace atomically replaces path with data by writing a temporary file in
// the same directory and renaming it over the target. The target is never
// truncated in place, so a concurrent reader (the OS resolver) never sees a
// half-written hosts file.
func (OSFileSystem) Replace(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".hostsync-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
