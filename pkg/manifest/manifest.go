package manifest

import (
	"fmt"
	"sort"

	"github.com/dsg-dev/dsg-sync/pkg/hash"
)

// FormatVersion is the current manifest file format version (spec §6,
// "version string '0.1.0' or later").
const FormatVersion = "0.1.0"

// Metadata carries the fields spec §3 requires of every manifest: identity
// of the snapshot, its place in the chain, and the hashes that bind its
// entries and lineage together.
type Metadata struct {
	// FormatVersion identifies the manifest schema in use.
	FormatVersion string `json:"format_version"`
	// SnapshotID is a short stable token, e.g. "s1", "s2".
	SnapshotID string `json:"snapshot_id"`
	// CreatedAt is the snapshot's creation timestamp (ISO-8601).
	CreatedAt string `json:"created_at"`
	// CreatedBy is the user id of the snapshot's creator.
	CreatedBy string `json:"created_by"`
	// EntryCount is the number of entries in the manifest.
	EntryCount int `json:"entry_count"`
	// EntriesHash is the hash of the canonical serialization of all
	// entries.
	EntriesHash string `json:"entries_hash"`
	// SnapshotMessage is free-text supplied by the committer.
	SnapshotMessage string `json:"snapshot_message"`
	// PreviousSnapshotID is the prior snapshot in the chain, or "" for the
	// genesis snapshot.
	PreviousSnapshotID string `json:"previous_snapshot_id,omitempty"`
	// PreviousSnapshotHash is the prior snapshot's SnapshotHash, or "" for
	// the genesis snapshot.
	PreviousSnapshotHash string `json:"previous_snapshot_hash,omitempty"`
	// SnapshotHash is H(entries_hash || snapshot_message ||
	// previous_snapshot_hash), the chain identity (spec §3, invariant 4).
	SnapshotHash string `json:"snapshot_hash"`
	// Notes is optional free-text.
	Notes string `json:"notes,omitempty"`
}

// Manifest is an ordered-by-path mapping from relative path to file entry,
// plus the metadata record identifying the snapshot it represents. A zero
// value Manifest (nil Entries, zero Metadata) represents the genesis case:
// an empty working tree (spec §8, "Boundary behaviors").
type Manifest struct {
	// Entries maps relative path to file entry.
	Entries map[string]Entry
	// Metadata is the snapshot metadata record. It is absent (zero value)
	// for manifests that are not yet associated with a committed snapshot,
	// such as a freshly-scanned working copy manifest.
	Metadata Metadata
}

// New returns an empty manifest ready to receive entries.
func New() *Manifest {
	return &Manifest{Entries: make(map[string]Entry)}
}

// SortedPaths returns the manifest's paths in the stable sort order used for
// canonical serialization (spec §3, "the serialized form sorts entries by
// path for deterministic bytes").
func (m *Manifest) SortedPaths() []string {
	paths := make([]string, 0, len(m.Entries))
	for path := range m.Entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Equal reports whether two manifests have identical entry sets (per-entry
// Entry.Equal), ignoring metadata. Used by tests verifying scan determinism
// (spec §8, "two independent scans of the same bytes yield identical
// manifests (modulo mtime)").
func (m *Manifest) Equal(other *Manifest) bool {
	if len(m.Entries) != len(other.Entries) {
		return false
	}
	for path, entry := range m.Entries {
		otherEntry, ok := other.Entries[path]
		if !ok || !entry.Equal(otherEntry) {
			return false
		}
	}
	return true
}

// ComputeEntriesHash computes the hash of the manifest's canonicalized
// entries using algorithm (spec §3, invariant 3).
func (m *Manifest) ComputeEntriesHash(algorithm hash.Algorithm) (string, error) {
	canonical, err := canonicalEntries(m)
	if err != nil {
		return "", fmt.Errorf("unable to canonicalize entries: %w", err)
	}
	return hash.Bytes(canonical, algorithm), nil
}

// ComputeSnapshotHash computes snapshot_hash = H(entriesHash ||
// snapshotMessage || previousSnapshotHash) as defined in spec §6.
func ComputeSnapshotHash(entriesHash, snapshotMessage, previousSnapshotHash string, algorithm hash.Algorithm) string {
	return hash.Bytes([]byte(entriesHash+snapshotMessage+previousSnapshotHash), algorithm)
}

// Finalize populates m.Metadata's hash fields and entry count from m's
// current entry set, given the remaining identity fields. It is the single
// place new snapshot metadata is constructed, keeping invariants 3 and 4
// (spec §3) from being hand-assembled incorrectly at call sites.
func (m *Manifest) Finalize(snapshotID, createdAt, createdBy, snapshotMessage, previousSnapshotID, previousSnapshotHash string, algorithm hash.Algorithm) error {
	entriesHash, err := m.ComputeEntriesHash(algorithm)
	if err != nil {
		return err
	}
	m.Metadata = Metadata{
		FormatVersion:        FormatVersion,
		SnapshotID:           snapshotID,
		CreatedAt:            createdAt,
		CreatedBy:            createdBy,
		EntryCount:           len(m.Entries),
		EntriesHash:          entriesHash,
		SnapshotMessage:      snapshotMessage,
		PreviousSnapshotID:   previousSnapshotID,
		PreviousSnapshotHash: previousSnapshotHash,
		SnapshotHash:         ComputeSnapshotHash(entriesHash, snapshotMessage, previousSnapshotHash, algorithm),
	}
	return nil
}

// VerifyIntegrity recomputes entries_hash and snapshot_hash from m's current
// state and reports whether they match the stored metadata (spec §8,
// invariant 1). algorithm must match the algorithm the manifest was
// originally finalized with.
func (m *Manifest) VerifyIntegrity(algorithm hash.Algorithm) error {
	entriesHash, err := m.ComputeEntriesHash(algorithm)
	if err != nil {
		return err
	}
	if entriesHash != m.Metadata.EntriesHash {
		return fmt.Errorf("entries_hash mismatch: stored %s, recomputed %s", m.Metadata.EntriesHash, entriesHash)
	}
	if len(m.Entries) != m.Metadata.EntryCount {
		return fmt.Errorf("entry_count mismatch: stored %d, actual %d", m.Metadata.EntryCount, len(m.Entries))
	}
	snapshotHash := ComputeSnapshotHash(entriesHash, m.Metadata.SnapshotMessage, m.Metadata.PreviousSnapshotHash, algorithm)
	if snapshotHash != m.Metadata.SnapshotHash {
		return fmt.Errorf("snapshot_hash mismatch: stored %s, recomputed %s", m.Metadata.SnapshotHash, snapshotHash)
	}
	return nil
}
