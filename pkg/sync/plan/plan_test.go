package plan

import (
	"testing"

	"github.com/dsg-dev/dsg-sync/pkg/sync/core"
)

func TestBuildCoversAllStates(t *testing.T) {
	states := map[string]core.SyncState{
		"eq":          core.StateAllEqual,
		"conflict1":   core.StateAllDiffer,
		"download":    core.StateLEqCNeR,
		"upload":      core.StateCEqRNeL,
		"cacheonly1":  core.StateLEqRNeC,
		"onlyl":       core.StateOnlyL,
		"onlyr":       core.StateOnlyR,
		"onlyc":       core.StateOnlyC,
		"deletelocal": core.StateLEqCRAbsent,
		"conflict2":   core.StateLNeCRAbsent,
		"cacheonly2":  core.StateLEqRCAbsent,
		"conflict3":   core.StateLNeRCAbsent,
		"deleteremote": core.StateCEqRLAbsent,
		"conflict4":   core.StateCNeRLAbsent,
	}

	p := Build(states, Options{})

	assertContains(t, "upload", p.UploadFiles, "upload")
	assertContains(t, "onlyl", p.UploadFiles, "onlyl")
	assertContains(t, "download", p.DownloadFiles, "download")
	assertContains(t, "onlyr", p.DownloadFiles, "onlyr")
	assertContains(t, "deletelocal", p.DeleteLocal, "deletelocal")
	assertContains(t, "deleteremote", p.DeleteRemote, "deleteremote")
	assertContains(t, "cacheonly1", p.CacheOnlyUpdates, "cacheonly1")
	assertContains(t, "cacheonly2", p.CacheOnlyUpdates, "cacheonly2")
	assertContains(t, "onlyc", p.CacheOnlyUpdates, "onlyc")

	for _, want := range []string{"conflict1", "conflict2", "conflict3", "conflict4"} {
		assertContains(t, "conflicts", p.Conflicts, want)
	}

	if !p.Disjoint() {
		t.Fatal("operational sets must be pairwise disjoint")
	}
	if !p.HasConflicts() {
		t.Fatal("expected HasConflicts to be true")
	}
}

func assertContains(t *testing.T, setName string, set []string, want string) {
	t.Helper()
	for _, v := range set {
		if v == want {
			return
		}
	}
	t.Errorf("expected %q in %s, got %v", want, setName, set)
}

func TestBuildNoConflictsWhenAllEqual(t *testing.T) {
	states := map[string]core.SyncState{"p": core.StateAllEqual}
	p := Build(states, Options{})
	if p.HasConflicts() {
		t.Fatal("expected no conflicts")
	}
	if len(p.UploadFiles) != 0 || len(p.DownloadFiles) != 0 {
		t.Fatal("an all_eq path should produce no operational entries")
	}
}

func TestBuildForcesMetadataUpload(t *testing.T) {
	p := Build(map[string]core.SyncState{}, Options{ForceUploadPaths: []string{"last-sync.json"}})
	assertContains(t, "upload", p.UploadFiles, "last-sync.json")
}

func TestBuildStrictOnlyCacheProducesConflict(t *testing.T) {
	states := map[string]core.SyncState{"p": core.StateOnlyC}
	p := Build(states, Options{StrictOnlyCache: true})
	if !p.HasConflicts() {
		t.Fatal("expected only_C to be a conflict under StrictOnlyCache")
	}
}

func TestDisjointDetectsOverlap(t *testing.T) {
	p := Plan{UploadFiles: []string{"x"}, DownloadFiles: []string{"x"}}
	if p.Disjoint() {
		t.Fatal("expected Disjoint to detect the overlapping path")
	}
}
