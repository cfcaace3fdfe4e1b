// Package atomicfile publishes files produced by path-based writers so that
// readers never observe a partial file.
package atomicfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// filePerm is the mode of published files.
const filePerm = 0o644

// ErrPublish reports a failure to move the finished file into place.
var ErrPublish = errors.New("publish file failed")

// Write reserves a temporary path next to dest, lets fill write the whole
// file there and renames it onto dest. On any failure the temporary file is
// removed and dest is left as it was.
func Write(dest string, fill func(tmpPath string) error) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(dest)+"-*")
	if err != nil {
		return fmt.Errorf("%w: reserve temp file in %s: %w", ErrPublish, dir, err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	if err := fill(tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: chmod %s: %w", ErrPublish, tmpPath, err)
	}
	if err := syncFile(tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: sync %s: %w", ErrPublish, tmpPath, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: rename onto %s: %w", ErrPublish, dest, err)
	}
	// Best effort; the rename already happened.
	_ = syncDir(dir)
	return nil
}

func syncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// syncDir fsyncs the parent directory to persist the rename.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
