package hostsfile

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
)

// BackupError represents a failed pre-write snapshot. The updater treats it
// as a hard stop: the hosts document must not be overwritten when the
// operator has asked for a recovery copy and none could be made.
type BackupError struct {
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup to '%s' failed: %v", e.Path, e.Err)
}

func (e *BackupError) Unwrap() error {
	return e.Err
}

// BackupManager writes a single-slot, byte-for-byte copy of the hosts
// document before each update. The slot is overwritten every cycle and is
// never read back automatically.
type BackupManager struct {
	fs      FileSystem
	enabled bool
	path    string
	logger  zerolog.Logger
}

// NewBackupManager creates a backup manager. When enabled is false Snapshot
// is a no-op.
func NewBackupManager(fs FileSystem, enabled bool, path string, logger zerolog.Logger) *BackupManager {
	return &BackupManager{
		fs:      fs,
		enabled: enabled,
		path:    path,
		logger:  logger.With().Str("component", "BackupManager").Logger(),
	}
}

// Snapshot writes the current document bytes to the backup slot, creating
// parent directories as needed.
func (bm *BackupManager) Snapshot(data []byte) error {
	if !bm.enabled {
		return nil
	}

	if err := bm.fs.MkdirAll(filepath.Dir(bm.path), 0755); err != nil {
		return &BackupError{Path: bm.path, Err: err}
	}
	if err := bm.fs.Replace(bm.path, data, 0644); err != nil {
		return &BackupError{Path: bm.path, Err: err}
	}

	bm.logger.Debug().Str("path", bm.path).Int("bytes", len(data)).Msg("Backup snapshot written")
	return nil
}
