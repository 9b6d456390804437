package validate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dsg-dev/dsg-sync/pkg/logging"
)

// RenamedFile records a single on-disk rename applied by the Normalizer.
type RenamedFile struct {
	OldPath string
	NewPath string
}

// RewrittenSymlink records a single symlink target rewrite applied by the
// Normalizer.
type RewrittenSymlink struct {
	Path      string
	OldTarget string
	NewTarget string
}

// NormalizeError records a single path the Normalizer could not repair,
// along with why.
type NormalizeError struct {
	Path  string
	Cause string
}

// Report summarizes the outcome of a Normalizer run (spec §4.4, "Return a
// structured report: renamed files, rewritten symlinks, errors").
type Report struct {
	Renamed   []RenamedFile
	Rewritten []RewrittenSymlink
	Errors    []NormalizeError
}

// Clean reports whether the normalization run produced no errors.
func (r Report) Clean() bool {
	return len(r.Errors) == 0
}

// Candidate is one path the Normalizer must consider, paired with whether
// it is a symlink and, if so, its current target.
type Candidate struct {
	Path          string
	IsSymlink     bool
	SymlinkTarget string
}

// Normalize applies Fix to each candidate rooted at root, renaming files and
// rewriting symlink targets on disk. It never touches a path for which Fix
// reports no change. Candidates must be supplied in an order where a
// directory's rename does not need to precede its children's; callers
// processing the Scanner's flat per-path output satisfy this automatically
// since there are no directory entries to rename (spec §3, "no Directory
// entries").
func Normalize(root string, candidates []Candidate, logger *logging.Logger) Report {
	var report Report

	for _, candidate := range candidates {
		newPath, changed := Fix(candidate.Path)
		if !changed {
			continue
		}

		oldAbs := filepath.Join(root, candidate.Path)
		newAbs := filepath.Join(root, newPath)

		if _, err := os.Lstat(newAbs); err == nil {
			report.Errors = append(report.Errors, NormalizeError{
				Path:  candidate.Path,
				Cause: fmt.Sprintf("normalized target %q already exists", newPath),
			})
			continue
		}

		if err := os.Rename(oldAbs, newAbs); err != nil {
			report.Errors = append(report.Errors, NormalizeError{
				Path:  candidate.Path,
				Cause: fmt.Sprintf("unable to rename: %s", err.Error()),
			})
			continue
		}
		report.Renamed = append(report.Renamed, RenamedFile{OldPath: candidate.Path, NewPath: newPath})
		logger.Debugf("normalized %q -> %q", candidate.Path, newPath)

		if candidate.IsSymlink {
			newTarget, targetChanged := Fix(candidate.SymlinkTarget)
			if !targetChanged {
				continue
			}
			if err := os.Remove(newAbs); err != nil {
				report.Errors = append(report.Errors, NormalizeError{
					Path:  newPath,
					Cause: fmt.Sprintf("unable to remove symlink for retarget: %s", err.Error()),
				})
				continue
			}
			if err := os.Symlink(newTarget, newAbs); err != nil {
				report.Errors = append(report.Errors, NormalizeError{
					Path:  newPath,
					Cause: fmt.Sprintf("unable to rewrite symlink target: %s", err.Error()),
				})
				continue
			}
			report.Rewritten = append(report.Rewritten, RewrittenSymlink{
				Path:      newPath,
				OldTarget: candidate.SymlinkTarget,
				NewTarget: newTarget,
			})
		}
	}

	return report
}
