// Package locking provides advisory, cross-process file locking used to
// serialize access to a working copy's metadata directory. A Transaction
// acquires the lock before touching the cache manifest or history files and
// releases it in its cleanup phase (spec §5, "Local cache (C)").
package locking

import (
	"fmt"
	"os"
)

// Locker provides advisory file locking backed by a single lock file.
type Locker struct {
	// file is the underlying lock file.
	file *os.File
}

// NewLocker opens (creating if necessary) the lock file at path and returns
// a Locker in an unlocked state.
func NewLocker(path string, permissions os.FileMode) (*Locker, error) {
	mode := os.O_RDWR | os.O_CREATE | os.O_APPEND
	file, err := os.OpenFile(path, mode, permissions)
	if err != nil {
		return nil, fmt.Errorf("unable to open lock file: %w", err)
	}
	return &Locker{file: file}, nil
}

// Close releases any held lock and closes the underlying lock file. It is
// safe to call even if the lock was never acquired.
func (l *Locker) Close() error {
	return l.file.Close()
}
