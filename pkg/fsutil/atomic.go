// Package fsutil provides filesystem utilities for atomic writes, syncing
// and cleanup, expressed over afero so callers can swap the backing filesystem.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// AtomicWrite writes data to a temporary file, fsyncs, then renames to target path.
func AtomicWrite(afs afero.Fs, path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := afero.TempFile(afs, dir, ".fcp-tmp-*")
	if err != nil {
		return fmt.Errorf("atomic write create tmp: %w", err)
	}
	tmpPath := tmp.Name()

	// Clean up on failure
	success := false
	defer func() {
		if !success {
			tmp.Close()
			afs.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("atomic write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("atomic write fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("atomic write close: %w", err)
	}
	if err := afs.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("atomic write chmod: %w", err)
	}

	if err := afs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("atomic write rename: %w", err)
	}
	if err := FsyncDir(afs, dir); err != nil {
		return fmt.Errorf("atomic write fsync dir: %w", err)
	}

	success = true
	return nil
}

// FsyncDir fsyncs a directory so a create or rename inside it is durable.
func FsyncDir(afs afero.Fs, dirPath string) error {
	d, err := afs.Open(dirPath)
	if err != nil {
		return fmt.Errorf("fsync dir open: %w", err)
	}
	defer d.Close()
	return d.Sync()
}

// RemoveIfExists removes path, treating an already missing file as success.
func RemoveIfExists(afs afero.Fs, path string) error {
	err := afs.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// SameFile reports whether a and b resolve to the same file on afs.
// Filesystems that do not expose device/inode identity never match.
func SameFile(afs afero.Fs, a, b string) bool {
	ai, err := afs.Stat(a)
	if err != nil {
		return false
	}
	bi, err := afs.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
