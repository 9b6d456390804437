// Package history implements HistoryIndex (spec §4.9): an append-only
// record of snapshot metadata and optional tags, mirrored between the
// remote and the local cache.
package history

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dsg-dev/dsg-sync/pkg/manifest"
)

// Tag is a symbolic alias for a snapshot (spec §4.9). Tags never rewrite
// the snapshot chain; they are pure metadata.
type Tag struct {
	TagID      string `json:"tag_id"`
	SnapshotID string `json:"snapshot_id"`
	TagMessage string `json:"tag_message"`
	CreatedBy  string `json:"created_by"`
	CreatedAt  string `json:"created_at"`
}

// Index holds the full set of recorded snapshot metadata and tags.
type Index struct {
	Messages map[string]manifest.Metadata `json:"messages"`
	Tags     []Tag                        `json:"tags"`
}

// New returns an empty Index.
func New() *Index {
	return &Index{Messages: make(map[string]manifest.Metadata)}
}

// Append records metadata for a newly committed snapshot. SnapshotID must
// be unique; Append returns an error if it is already present, since the
// index is append-only (spec §4.9).
func (idx *Index) Append(metadata manifest.Metadata) error {
	if _, exists := idx.Messages[metadata.SnapshotID]; exists {
		return fmt.Errorf("snapshot %q is already recorded", metadata.SnapshotID)
	}
	idx.Messages[metadata.SnapshotID] = metadata
	return nil
}

// AddTag records a new tag. TagID must be unique.
func (idx *Index) AddTag(tag Tag) error {
	for _, existing := range idx.Tags {
		if existing.TagID == tag.TagID {
			return fmt.Errorf("tag %q is already recorded", tag.TagID)
		}
	}
	if _, exists := idx.Messages[tag.SnapshotID]; !exists {
		return fmt.Errorf("tag %q refers to unknown snapshot %q", tag.TagID, tag.SnapshotID)
	}
	idx.Tags = append(idx.Tags, tag)
	return nil
}

// TagsForSnapshot returns every tag pointing at snapshotID, in the order
// they were added to the index.
func (idx *Index) TagsForSnapshot(snapshotID string) []Tag {
	var result []Tag
	for _, tag := range idx.Tags {
		if tag.SnapshotID == snapshotID {
			result = append(result, tag)
		}
	}
	return result
}

// SortedSnapshotIDs returns every recorded snapshot id in chain order
// (genesis first), following PreviousSnapshotID links starting from head.
// It returns an error if the chain is discontinuous or cyclic (spec §8,
// invariant 2).
func (idx *Index) SortedSnapshotIDs(head string) ([]string, error) {
	var chain []string
	seen := make(map[string]bool)

	current := head
	for current != "" {
		if seen[current] {
			return nil, fmt.Errorf("snapshot chain is cyclic at %q", current)
		}
		seen[current] = true

		metadata, ok := idx.Messages[current]
		if !ok {
			return nil, fmt.Errorf("snapshot chain references unknown snapshot %q", current)
		}
		chain = append(chain, current)
		current = metadata.PreviousSnapshotID
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// MarshalMessages serializes the sync-messages mirror (spec §6,
// "sync-messages.json").
func (idx *Index) MarshalMessages() ([]byte, error) {
	return json.MarshalIndent(idx.Messages, "", "  ")
}

// MarshalTags serializes the tag-messages mirror (spec §6,
// "tag-messages.json"), sorted for deterministic bytes.
func (idx *Index) MarshalTags() ([]byte, error) {
	sorted := append([]Tag(nil), idx.Tags...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TagID < sorted[j].TagID
	})
	return json.MarshalIndent(sorted, "", "  ")
}

// ParseMessages decodes a sync-messages.json mirror.
func ParseMessages(data []byte) (map[string]manifest.Metadata, error) {
	messages := make(map[string]manifest.Metadata)
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("unable to parse sync-messages: %w", err)
	}
	return messages, nil
}

// ParseTags decodes a tag-messages.json mirror.
func ParseTags(data []byte) ([]Tag, error) {
	var tags []Tag
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, fmt.Errorf("unable to parse tag-messages: %w", err)
	}
	return tags, nil
}
