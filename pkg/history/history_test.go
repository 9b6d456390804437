package history

import (
	"testing"

	"github.com/dsg-dev/dsg-sync/pkg/manifest"
)

func meta(id, previous string) manifest.Metadata {
	return manifest.Metadata{
		FormatVersion:        manifest.FormatVersion,
		SnapshotID:           id,
		CreatedAt:            "2026-07-30T00:00:00Z",
		CreatedBy:            "tester",
		EntryCount:           0,
		EntriesHash:          "e-" + id,
		PreviousSnapshotID:   previous,
		PreviousSnapshotHash: "h-" + previous,
		SnapshotHash:         "h-" + id,
	}
}

func TestAppendRejectsDuplicateSnapshotID(t *testing.T) {
	idx := New()
	if err := idx.Append(meta("s1", "")); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := idx.Append(meta("s1", "")); err == nil {
		t.Fatal("expected duplicate snapshot id to be rejected")
	}
}

func TestAddTagRejectsDuplicateAndUnknownSnapshot(t *testing.T) {
	idx := New()
	if err := idx.Append(meta("s1", "")); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	tag := Tag{TagID: "v1", SnapshotID: "s1", CreatedBy: "tester", CreatedAt: "2026-07-30T00:00:00Z"}
	if err := idx.AddTag(tag); err != nil {
		t.Fatalf("AddTag failed: %v", err)
	}
	if err := idx.AddTag(tag); err == nil {
		t.Fatal("expected duplicate tag id to be rejected")
	}

	orphan := Tag{TagID: "v2", SnapshotID: "s999", CreatedBy: "tester", CreatedAt: "2026-07-30T00:00:00Z"}
	if err := idx.AddTag(orphan); err == nil {
		t.Fatal("expected tag referencing unknown snapshot to be rejected")
	}
}

func TestTagsForSnapshot(t *testing.T) {
	idx := New()
	_ = idx.Append(meta("s1", ""))
	_ = idx.AddTag(Tag{TagID: "v1", SnapshotID: "s1"})
	_ = idx.AddTag(Tag{TagID: "v1.1", SnapshotID: "s1"})

	tags := idx.TagsForSnapshot("s1")
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}
	if len(idx.TagsForSnapshot("s2")) != 0 {
		t.Fatal("expected no tags for unknown snapshot")
	}
}

func TestSortedSnapshotIDsWalksChain(t *testing.T) {
	idx := New()
	_ = idx.Append(meta("s1", ""))
	_ = idx.Append(meta("s2", "s1"))
	_ = idx.Append(meta("s3", "s2"))

	chain, err := idx.SortedSnapshotIDs("s3")
	if err != nil {
		t.Fatalf("SortedSnapshotIDs failed: %v", err)
	}
	want := []string{"s1", "s2", "s3"}
	if len(chain) != len(want) {
		t.Fatalf("expected chain %v, got %v", want, chain)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Fatalf("expected chain %v, got %v", want, chain)
		}
	}
}

func TestSortedSnapshotIDsDetectsDiscontinuity(t *testing.T) {
	idx := New()
	_ = idx.Append(meta("s2", "s1"))

	if _, err := idx.SortedSnapshotIDs("s2"); err == nil {
		t.Fatal("expected discontinuous chain to be rejected")
	}
}

func TestSortedSnapshotIDsDetectsCycle(t *testing.T) {
	idx := New()
	idx.Messages["s1"] = manifest.Metadata{SnapshotID: "s1", PreviousSnapshotID: "s2"}
	idx.Messages["s2"] = manifest.Metadata{SnapshotID: "s2", PreviousSnapshotID: "s1"}

	if _, err := idx.SortedSnapshotIDs("s1"); err == nil {
		t.Fatal("expected cyclic chain to be rejected")
	}
}

func TestMarshalParseMessagesRoundTrip(t *testing.T) {
	idx := New()
	_ = idx.Append(meta("s1", ""))
	_ = idx.Append(meta("s2", "s1"))

	data, err := idx.MarshalMessages()
	if err != nil {
		t.Fatalf("MarshalMessages failed: %v", err)
	}
	parsed, err := ParseMessages(data)
	if err != nil {
		t.Fatalf("ParseMessages failed: %v", err)
	}
	if len(parsed) != 2 || parsed["s2"].PreviousSnapshotID != "s1" {
		t.Fatalf("round trip produced unexpected messages: %+v", parsed)
	}
}

func TestMarshalParseTagsRoundTripSorted(t *testing.T) {
	idx := New()
	_ = idx.Append(meta("s1", ""))
	_ = idx.AddTag(Tag{TagID: "v2", SnapshotID: "s1"})
	_ = idx.AddTag(Tag{TagID: "v1", SnapshotID: "s1"})

	data, err := idx.MarshalTags()
	if err != nil {
		t.Fatalf("MarshalTags failed: %v", err)
	}
	parsed, err := ParseTags(data)
	if err != nil {
		t.Fatalf("ParseTags failed: %v", err)
	}
	if len(parsed) != 2 || parsed[0].TagID != "v1" || parsed[1].TagID != "v2" {
		t.Fatalf("expected tags sorted by id, got %+v", parsed)
	}
}

func TestRepairHealsMissingIndexRecord(t *testing.T) {
	idx := New()
	_ = idx.Append(meta("s1", ""))

	s2 := meta("s2", "s1")
	reads := 0
	reader := func(snapshotID string) (manifest.Metadata, error) {
		reads++
		return s2, nil
	}

	if err := idx.Repair("s2", reader); err != nil {
		t.Fatalf("Repair failed: %v", err)
	}
	if _, ok := idx.Messages["s2"]; !ok {
		t.Fatal("expected Repair to append the missing snapshot")
	}

	// Idempotent: calling again must not re-read.
	if err := idx.Repair("s2", reader); err != nil {
		t.Fatalf("second Repair call failed: %v", err)
	}
	if reads != 1 {
		t.Fatalf("expected exactly one metadata read, got %d", reads)
	}
}

func TestRepairRejectsDiscontinuousPrevious(t *testing.T) {
	idx := New()
	s2 := meta("s2", "s1")
	reader := func(snapshotID string) (manifest.Metadata, error) { return s2, nil }

	if err := idx.Repair("s2", reader); err == nil {
		t.Fatal("expected Repair to reject a snapshot whose previous is also missing")
	}
}

func TestParseVersionedTag(t *testing.T) {
	tests := []struct {
		id      string
		want    VersionedTag
		wantErr bool
	}{
		{"v1", VersionedTag{Major: 1}, false},
		{"v1.2", VersionedTag{Major: 1, Minor: 2, HasMinor: true}, false},
		{"v1.2.3", VersionedTag{Major: 1, Minor: 2, Patch: 3, HasMinor: true, HasPatch: true}, false},
		{"v1.2.3-release", VersionedTag{Major: 1, Minor: 2, Patch: 3, HasMinor: true, HasPatch: true, Description: "release"}, false},
		{"1.2", VersionedTag{}, true},
		{"vx.y", VersionedTag{}, true},
	}
	for _, test := range tests {
		got, err := ParseVersionedTag(test.id)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseVersionedTag(%q): expected error", test.id)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseVersionedTag(%q) failed: %v", test.id, err)
		}
		if got != test.want {
			t.Errorf("ParseVersionedTag(%q) = %+v, want %+v", test.id, got, test.want)
		}
	}
}

func TestVersionedTagLessOrdersByNumericTuple(t *testing.T) {
	v1, _ := ParseVersionedTag("v1.9.0")
	v2, _ := ParseVersionedTag("v1.10.0")
	if !v1.Less(v2) {
		t.Fatal("expected v1.9.0 to sort before v1.10.0 (numeric, not lexicographic)")
	}

	bare, _ := ParseVersionedTag("v2")
	withMinor, _ := ParseVersionedTag("v2.0.0")
	if bare.Less(withMinor) || withMinor.Less(bare) {
		t.Fatal("expected v2 and v2.0.0 to compare equal under Less")
	}
}

func TestVersionedTagStringRoundTrip(t *testing.T) {
	for _, id := range []string{"v1", "v1.2", "v1.2.3", "v1.2.3-release-candidate"} {
		tag, err := ParseVersionedTag(id)
		if err != nil {
			t.Fatalf("ParseVersionedTag(%q) failed: %v", id, err)
		}
		if got := tag.String(); got != id {
			t.Errorf("String() round trip: got %q, want %q", got, id)
		}
	}
}
