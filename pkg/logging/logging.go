// Package logging provides a leveled, prefixed logger used across the sync
// engine: scans, normalization, planning, staging, and transport subprocess
// output all log through a sublogger of RootLogger rather than writing to
// stdout directly, so a caller embedding the engine can redirect or
// suppress it without the engine needing to know.
package logging

import (
	"log"
	"os"
)

// envLevelVariable is the environment variable consulted at startup to
// override the default logging level, e.g. DSG_LOG_LEVEL=debug.
const envLevelVariable = "DSG_LOG_LEVEL"

func init() {
	log.SetOutput(os.Stdout)
	log.SetFlags(0)
	if name := os.Getenv(envLevelVariable); name != "" {
		if level, ok := NameToLevel(name); ok {
			SetLevel(level)
		}
	}
}
