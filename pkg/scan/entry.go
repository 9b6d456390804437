package scan

import (
	"io/fs"
	"os"
	"time"

	"github.com/dsg-dev/dsg-sync/pkg/manifest"
	"github.com/dsg-dev/dsg-sync/pkg/manifest/validate"
)

// timestampFormat is the fixed ISO-8601 form used for every mtime recorded
// in a manifest (spec §3, "ISO-8601 with fixed repository timezone"). The
// engine always normalizes to UTC so that two scans of identical content on
// machines in different timezones produce byte-identical timestamps.
const timestampFormat = "2006-01-02T15:04:05Z"

func formatModTime(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

// recordRegularFile records a regular file's entry without computing its
// hash; hashing is deferred to a parallel pass over every regular file
// discovered by the walk (see hashEntries), since a file's digest doesn't
// depend on walk order. The caller queues path for hashing itself.
func recordRegularFile(result *Result, opts Options, path, absolutePath string, info fs.FileInfo) error {
	result.Manifest.Entries[path] = manifest.Entry{
		Kind:             manifest.KindRegularFile,
		Path:             path,
		Size:             uint64(info.Size()),
		ModificationTime: formatModTime(info.ModTime()),
		Writer:           opts.Writer,
	}
	return nil
}

func recordSymlink(result *Result, opts Options, path, absolutePath string, info fs.FileInfo) error {
	target, err := os.Readlink(absolutePath)
	if err != nil {
		return err
	}

	if manifest.ReferenceEscapesRoot(path, target) {
		result.Warnings = append(result.Warnings, validate.Problem{
			Path:  path,
			Cause: "symlink target escapes repository root",
		})
		return nil
	}

	result.Manifest.Entries[path] = manifest.Entry{
		Kind:             manifest.KindSymlink,
		Path:             path,
		Reference:        target,
		ModificationTime: formatModTime(info.ModTime()),
		Writer:           opts.Writer,
	}
	return nil
}
