package core

import (
	"testing"

	"github.com/dsg-dev/dsg-sync/pkg/manifest"
)

func entry(hash string) manifest.Entry {
	return manifest.Entry{Kind: manifest.KindRegularFile, Path: "p", Hash: hash}
}

func manifestWith(entries map[string]manifest.Entry) *manifest.Manifest {
	m := manifest.New()
	for path, e := range entries {
		e.Path = path
		m.Entries[path] = e
	}
	return m
}

func empty() *manifest.Manifest { return manifest.New() }

func TestMergeAllFifteenStates(t *testing.T) {
	tests := []struct {
		name  string
		l, c, r *manifest.Manifest
		want  SyncState
	}{
		{"all_eq", manifestWith(map[string]manifest.Entry{"p": entry("h1")}), manifestWith(map[string]manifest.Entry{"p": entry("h1")}), manifestWith(map[string]manifest.Entry{"p": entry("h1")}), StateAllEqual},
		{"all_ne", manifestWith(map[string]manifest.Entry{"p": entry("h1")}), manifestWith(map[string]manifest.Entry{"p": entry("h2")}), manifestWith(map[string]manifest.Entry{"p": entry("h3")}), StateAllDiffer},
		{"L_eq_C_ne_R", manifestWith(map[string]manifest.Entry{"p": entry("h1")}), manifestWith(map[string]manifest.Entry{"p": entry("h1")}), manifestWith(map[string]manifest.Entry{"p": entry("h2")}), StateLEqCNeR},
		{"C_eq_R_ne_L", manifestWith(map[string]manifest.Entry{"p": entry("h2")}), manifestWith(map[string]manifest.Entry{"p": entry("h1")}), manifestWith(map[string]manifest.Entry{"p": entry("h1")}), StateCEqRNeL},
		{"L_eq_R_ne_C", manifestWith(map[string]manifest.Entry{"p": entry("h1")}), manifestWith(map[string]manifest.Entry{"p": entry("h2")}), manifestWith(map[string]manifest.Entry{"p": entry("h1")}), StateLEqRNeC},
		{"only_L", manifestWith(map[string]manifest.Entry{"p": entry("h1")}), empty(), empty(), StateOnlyL},
		{"only_R", empty(), empty(), manifestWith(map[string]manifest.Entry{"p": entry("h1")}), StateOnlyR},
		{"only_C", empty(), manifestWith(map[string]manifest.Entry{"p": entry("h1")}), empty(), StateOnlyC},
		{"L_eq_C_r_absent", manifestWith(map[string]manifest.Entry{"p": entry("h1")}), manifestWith(map[string]manifest.Entry{"p": entry("h1")}), empty(), StateLEqCRAbsent},
		{"L_ne_C_r_absent", manifestWith(map[string]manifest.Entry{"p": entry("h1")}), manifestWith(map[string]manifest.Entry{"p": entry("h2")}), empty(), StateLNeCRAbsent},
		{"L_eq_R_c_absent", manifestWith(map[string]manifest.Entry{"p": entry("h1")}), empty(), manifestWith(map[string]manifest.Entry{"p": entry("h1")}), StateLEqRCAbsent},
		{"L_ne_R_c_absent", manifestWith(map[string]manifest.Entry{"p": entry("h1")}), empty(), manifestWith(map[string]manifest.Entry{"p": entry("h2")}), StateLNeRCAbsent},
		{"C_eq_R_l_absent", empty(), manifestWith(map[string]manifest.Entry{"p": entry("h1")}), manifestWith(map[string]manifest.Entry{"p": entry("h1")}), StateCEqRLAbsent},
		{"C_ne_R_l_absent", empty(), manifestWith(map[string]manifest.Entry{"p": entry("h1")}), manifestWith(map[string]manifest.Entry{"p": entry("h2")}), StateCNeRLAbsent},
	}

	seen := make(map[SyncState]bool)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			states := Merge(test.l, test.c, test.r)
			got, ok := states["p"]
			if !ok {
				t.Fatalf("expected a state for path %q", "p")
			}
			if got != test.want {
				t.Fatalf("Merge() state = %v, want %v", got, test.want)
			}
			seen[got] = true
		})
	}

	if len(seen) != 14 {
		t.Fatalf("expected to exercise 14 distinct non-trivial states (state 15, 'none', is never observed), got %d", len(seen))
	}
}

func TestMergeConflictStatesMatchSpec(t *testing.T) {
	conflictStates := []SyncState{StateAllDiffer, StateLNeCRAbsent, StateLNeRCAbsent, StateCNeRLAbsent}
	for _, s := range conflictStates {
		if !s.IsConflict() {
			t.Errorf("expected %v to be a conflict state", s)
		}
	}
	nonConflict := []SyncState{StateAllEqual, StateLEqCNeR, StateCEqRNeL, StateLEqRNeC, StateOnlyL, StateOnlyR, StateOnlyC, StateLEqCRAbsent, StateLEqRCAbsent, StateCEqRLAbsent}
	for _, s := range nonConflict {
		if s.IsConflict() {
			t.Errorf("did not expect %v to be a conflict state", s)
		}
	}
}

func TestMergeIsPureFunctionOfInputs(t *testing.T) {
	l := manifestWith(map[string]manifest.Entry{"a": entry("1"), "b": entry("2")})
	c := manifestWith(map[string]manifest.Entry{"a": entry("1")})
	r := manifestWith(map[string]manifest.Entry{"b": entry("2"), "c": entry("3")})

	first := Merge(l, c, r)
	second := Merge(l, c, r)

	if len(first) != len(second) {
		t.Fatalf("non-deterministic result size: %d vs %d", len(first), len(second))
	}
	for path, state := range first {
		if second[path] != state {
			t.Fatalf("non-deterministic state for %q: %v vs %v", path, state, second[path])
		}
	}
}
