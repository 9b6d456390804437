// Package plan implements the SyncPlanner (spec §4.6): it translates a
// SyncState map into the concrete operational sets a Transaction executes,
// plus the conflict list that aborts a sync before any remote mutation.
package plan

import (
	"sort"

	"github.com/dsg-dev/dsg-sync/pkg/sync/core"
)

// Plan holds the four disjoint operational sets plus the cache-only-update
// and conflict sets spec §4.6 defines. UploadFiles, DownloadFiles,
// DeleteLocal, and DeleteRemote are pairwise disjoint; every other observed
// path lands in exactly one of CacheOnlyUpdates, Conflicts, or is a silent
// no-op (state all_eq or the unreachable state 15).
type Plan struct {
	UploadFiles      []string
	DownloadFiles    []string
	DeleteLocal      []string
	DeleteRemote     []string
	CacheOnlyUpdates []string
	Conflicts        []string
}

// Options configures a planner run.
type Options struct {
	// StrictOnlyCache, when true, treats state 8 (only_C) as a problem
	// requiring caller attention rather than a silent cache cleanup. This
	// resolves SPEC_FULL's Open Question about the only_C case: by default
	// the planner heals silently (removes the stale cache entry), since a
	// path that only exists in the cache represents prior sync bookkeeping
	// with no surviving data on either side to reconcile against.
	StrictOnlyCache bool
	// ForceUploadPaths are paths (typically the engine's own metadata
	// files) always included in UploadFiles regardless of their SyncState,
	// to force a metadata refresh on the remote on every sync.
	ForceUploadPaths []string
}

// Build translates states into a Plan (spec §4.6). If any conflicts are
// found, callers must abort before touching the remote (spec §4.10, phase
// 3).
func Build(states map[string]core.SyncState, opts Options) Plan {
	var result Plan

	for path, state := range states {
		switch state {
		case core.StateAllEqual:
			// no-op
		case core.StateLEqCNeR:
			result.DownloadFiles = append(result.DownloadFiles, path)
		case core.StateCEqRNeL:
			result.UploadFiles = append(result.UploadFiles, path)
		case core.StateLEqRNeC:
			result.CacheOnlyUpdates = append(result.CacheOnlyUpdates, path)
		case core.StateOnlyL:
			result.UploadFiles = append(result.UploadFiles, path)
		case core.StateOnlyR:
			result.DownloadFiles = append(result.DownloadFiles, path)
		case core.StateOnlyC:
			if opts.StrictOnlyCache {
				result.Conflicts = append(result.Conflicts, path)
			} else {
				result.CacheOnlyUpdates = append(result.CacheOnlyUpdates, path)
			}
		case core.StateLEqCRAbsent:
			result.DeleteLocal = append(result.DeleteLocal, path)
		case core.StateLEqRCAbsent:
			result.CacheOnlyUpdates = append(result.CacheOnlyUpdates, path)
		case core.StateCEqRLAbsent:
			result.DeleteRemote = append(result.DeleteRemote, path)
		case core.StateAllDiffer, core.StateLNeCRAbsent, core.StateLNeRCAbsent, core.StateCNeRLAbsent:
			result.Conflicts = append(result.Conflicts, path)
		case core.StateNone:
			// unreachable: a path absent from L, C, and R is never
			// observed by Merge.
		}
	}

	for _, path := range opts.ForceUploadPaths {
		result.UploadFiles = appendIfMissing(result.UploadFiles, path)
	}

	sort.Strings(result.UploadFiles)
	sort.Strings(result.DownloadFiles)
	sort.Strings(result.DeleteLocal)
	sort.Strings(result.DeleteRemote)
	sort.Strings(result.CacheOnlyUpdates)
	sort.Strings(result.Conflicts)

	return result
}

func appendIfMissing(set []string, value string) []string {
	for _, existing := range set {
		if existing == value {
			return set
		}
	}
	return append(set, value)
}

// HasConflicts reports whether the plan has any unresolved conflicts (spec
// §4.10, phase 3: "If conflicts is non-empty, abort").
func (p Plan) HasConflicts() bool {
	return len(p.Conflicts) > 0
}

// Disjoint verifies the pairwise-disjointness guarantee spec §4.6 and §8
// (invariant 6) require of the four operational sets. It is exposed for
// tests and for a Transaction's own defensive check before staging.
func (p Plan) Disjoint() bool {
	seen := make(map[string]bool)
	for _, group := range [][]string{p.UploadFiles, p.DownloadFiles, p.DeleteLocal, p.DeleteRemote} {
		for _, path := range group {
			if seen[path] {
				return false
			}
			seen[path] = true
		}
	}
	return true
}
