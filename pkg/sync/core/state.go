// Package core implements the ManifestMerger (spec §4.5): the pure,
// I/O-free function that classifies every path observed across the
// working copy (L), local cache (C), and remote (R) manifests into one of
// fifteen mutually exclusive SyncStates.
package core

// SyncState identifies one of the fifteen classes spec §4.5's table
// defines, combining presence across L/C/R with equality of present
// entries.
type SyncState uint8

const (
	// StateInvalid is the zero value and never appears in a merge result.
	StateInvalid SyncState = iota
	// StateAllEqual is case 1: present everywhere, L=C=R.
	StateAllEqual
	// StateAllDiffer is case 2: present everywhere, all differ. Conflict.
	StateAllDiffer
	// StateLEqCNeR is case 3: present everywhere, L=C, R differs.
	StateLEqCNeR
	// StateCEqRNeL is case 4: present everywhere, C=R, L differs.
	StateCEqRNeL
	// StateLEqRNeC is case 5: present everywhere, L=R, C differs.
	StateLEqRNeC
	// StateOnlyL is case 6: present only in L.
	StateOnlyL
	// StateOnlyR is case 7: present only in R.
	StateOnlyR
	// StateOnlyC is case 8: present only in C.
	StateOnlyC
	// StateLEqCRAbsent is case 9: present in L and C (equal), absent in R.
	StateLEqCRAbsent
	// StateLNeCRAbsent is case 10: present in L and C (differ), absent in
	// R. Conflict.
	StateLNeCRAbsent
	// StateLEqRCAbsent is case 11: present in L and R (equal), absent in C.
	StateLEqRCAbsent
	// StateLNeRCAbsent is case 12: present in L and R (differ), absent in
	// C. Conflict.
	StateLNeRCAbsent
	// StateCEqRLAbsent is case 13: present in C and R (equal), absent in L.
	StateCEqRLAbsent
	// StateCNeRLAbsent is case 14: present in C and R (differ), absent in
	// L. Conflict.
	StateCNeRLAbsent
	// StateNone is case 15: absent everywhere. Never actually emitted,
	// since a path with no presence anywhere is never observed.
	StateNone
)

// IsConflict reports whether s is one of the four conflict states (2, 10,
// 12, 14 in spec §4.5's numbering).
func (s SyncState) IsConflict() bool {
	switch s {
	case StateAllDiffer, StateLNeCRAbsent, StateLNeRCAbsent, StateCNeRLAbsent:
		return true
	default:
		return false
	}
}

// String returns the state's tag as written in spec §4.5's table.
func (s SyncState) String() string {
	switch s {
	case StateAllEqual:
		return "all_eq"
	case StateAllDiffer:
		return "all_ne"
	case StateLEqCNeR:
		return "L_eq_C_ne_R"
	case StateCEqRNeL:
		return "C_eq_R_ne_L"
	case StateLEqRNeC:
		return "L_eq_R_ne_C"
	case StateOnlyL:
		return "only_L"
	case StateOnlyR:
		return "only_R"
	case StateOnlyC:
		return "only_C"
	case StateLEqCRAbsent:
		return "L_eq_C"
	case StateLNeCRAbsent:
		return "L_ne_C"
	case StateLEqRCAbsent:
		return "L_eq_R"
	case StateLNeRCAbsent:
		return "L_ne_R"
	case StateCEqRLAbsent:
		return "C_eq_R"
	case StateCNeRLAbsent:
		return "C_ne_R"
	case StateNone:
		return "none"
	default:
		return "invalid"
	}
}
