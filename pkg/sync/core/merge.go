package core

import "github.com/dsg-dev/dsg-sync/pkg/manifest"

// Merge classifies every path observed in l, c, or r into its SyncState
// (spec §4.5). It performs no I/O and its result depends only on its
// arguments, not on map iteration order (spec §8, invariant 5).
func Merge(l, c, r *manifest.Manifest) map[string]SyncState {
	paths := unionPaths(l, c, r)
	states := make(map[string]SyncState, len(paths))

	for path := range paths {
		lEntry, lOK := l.Entries[path]
		cEntry, cOK := c.Entries[path]
		rEntry, rOK := r.Entries[path]
		states[path] = classify(lEntry, lOK, cEntry, cOK, rEntry, rOK)
	}

	return states
}

func classify(l manifest.Entry, lOK bool, c manifest.Entry, cOK bool, r manifest.Entry, rOK bool) SyncState {
	switch {
	case lOK && cOK && rOK:
		lc := l.Equal(c)
		cr := c.Equal(r)
		lr := l.Equal(r)
		switch {
		case lc && cr: // implies lr too
			return StateAllEqual
		case lc && !cr:
			return StateLEqCNeR
		case cr && !lc:
			return StateCEqRNeL
		case lr && !lc:
			return StateLEqRNeC
		default:
			return StateAllDiffer
		}
	case lOK && !cOK && !rOK:
		return StateOnlyL
	case !lOK && !cOK && rOK:
		return StateOnlyR
	case !lOK && cOK && !rOK:
		return StateOnlyC
	case lOK && cOK && !rOK:
		if l.Equal(c) {
			return StateLEqCRAbsent
		}
		return StateLNeCRAbsent
	case lOK && !cOK && rOK:
		if l.Equal(r) {
			return StateLEqRCAbsent
		}
		return StateLNeRCAbsent
	case !lOK && cOK && rOK:
		if c.Equal(r) {
			return StateCEqRLAbsent
		}
		return StateCNeRLAbsent
	default:
		return StateNone
	}
}

func unionPaths(manifests ...*manifest.Manifest) map[string]struct{} {
	union := make(map[string]struct{})
	for _, m := range manifests {
		if m == nil {
			continue
		}
		for path := range m.Entries {
			union[path] = struct{}{}
		}
	}
	return union
}
