// Package filesystem provides small local-filesystem primitives shared by
// the cache, history, and config writers: atomic file replacement, the
// engine's on-disk metadata layout, and path normalization. It deliberately
// does not reimplement a cross-platform directory walker or executability
// tracker, since the flat manifest model (spec §3) has no use for either.
package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dsg-dev/dsg-sync/pkg/logging"
	"github.com/dsg-dev/dsg-sync/pkg/must"
)

const (
	// atomicWriteTemporaryNamePrefix is the file name prefix used for
	// intermediate temporary files created during atomic writes.
	atomicWriteTemporaryNamePrefix = TemporaryNamePrefix + "atomic-write"
)

// WriteFileAtomic writes data to path using an intermediate temporary file
// that is swapped into place with a rename, so that a reader never observes
// a partially-written file. Transaction's cache rewrite (spec §4.10, phase
// 6, "write-to-temp + rename") and the history index both use this.
func WriteFileAtomic(path string, data []byte, permissions os.FileMode, logger *logging.Logger) error {
	directory := filepath.Dir(path)

	temporary, err := os.CreateTemp(directory, atomicWriteTemporaryNamePrefix)
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}

	if _, err = temporary.Write(data); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to write data to temporary file: %w", err)
	}

	if err = temporary.Close(); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to close temporary file: %w", err)
	}

	if err = os.Chmod(temporary.Name(), permissions); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to change file permissions: %w", err)
	}

	if err = renameAtomic(temporary.Name(), path); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to rename file: %w", err)
	}

	return nil
}

// renameAtomic renames oldPath to newPath, falling back to a copy-then-remove
// when the rename fails because the two paths live on different devices
// (e.g. a metadata directory mounted separately from the data it describes).
func renameAtomic(oldPath, newPath string) error {
	err := os.Rename(oldPath, newPath)
	if err == nil {
		return nil
	}
	if !isCrossDeviceError(err) {
		return err
	}

	source, openErr := os.Open(oldPath)
	if openErr != nil {
		return err
	}
	defer source.Close()

	info, statErr := source.Stat()
	if statErr != nil {
		return err
	}

	destination, createErr := os.OpenFile(newPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if createErr != nil {
		return err
	}
	if _, copyErr := io.Copy(destination, source); copyErr != nil {
		destination.Close()
		return copyErr
	}
	if closeErr := destination.Close(); closeErr != nil {
		return closeErr
	}

	return os.Remove(oldPath)
}
