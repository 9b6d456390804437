// Package must provides helpers for invoking operations that are expected to
// succeed but whose errors we don't want to ignore outright: instead of a
// bare "_ = f()", callers log a warning so failures are visible without
// forcing every best-effort cleanup path to plumb an error return.
package must

import (
	"io"
	"os"

	"github.com/dsg-dev/dsg-sync/pkg/logging"
)

// Close closes c, logging a warning if it fails. Used for best-effort
// cleanup of files and connections during rollback and staging teardown.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("Unable to close: %s", err.Error())
	}
}

// OSRemove removes the named file, logging a warning if it fails. Used when
// cleaning up temporary files and staging directories where the removal
// itself is not load-bearing for correctness.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil {
		logger.Warnf("Unable to remove '%s': %s", name, err.Error())
	}
}

// OSRemoveAll removes the named path and any children, logging a warning if
// it fails.
func OSRemoveAll(name string, logger *logging.Logger) {
	if err := os.RemoveAll(name); err != nil {
		logger.Warnf("Unable to remove '%s': %s", name, err.Error())
	}
}

// Unlock releases an advisory lock, logging a warning if it fails.
func Unlock(locker interface{ Unlock() error }, logger *logging.Logger) {
	if err := locker.Unlock(); err != nil {
		logger.Warnf("Unable to unlock locker: %s", err.Error())
	}
}
