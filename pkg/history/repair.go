package history

import (
	"fmt"

	"github.com/dsg-dev/dsg-sync/pkg/manifest"
)

// MetadataReader reads back the committed manifest.Metadata for a snapshot
// that a SnapshotBackend reports as present, typically by reading the
// metadata file a Transaction wrote into the snapshot during commit.
type MetadataReader func(snapshotID string) (manifest.Metadata, error)

// Repair implements the at-most-once-commit healing described in spec §4.10:
// if a Transaction is interrupted after the backend-level commit
// (promote/rename, or staging-directory rename) but before the HistoryIndex
// append, the backend holds a snapshot with no corresponding index record.
// Repair detects that gap for latestSnapshotID and heals it by reading the
// snapshot's own metadata via read. It is idempotent: calling it again once
// the record exists is a no-op.
func (idx *Index) Repair(latestSnapshotID string, read MetadataReader) error {
	if latestSnapshotID == "" {
		return nil
	}
	if _, exists := idx.Messages[latestSnapshotID]; exists {
		return nil
	}

	metadata, err := read(latestSnapshotID)
	if err != nil {
		return fmt.Errorf("unable to read metadata for uncommitted-index snapshot %q: %w", latestSnapshotID, err)
	}
	if metadata.SnapshotID != latestSnapshotID {
		return fmt.Errorf("snapshot %q metadata reports mismatched id %q", latestSnapshotID, metadata.SnapshotID)
	}

	if metadata.PreviousSnapshotID != "" {
		if _, known := idx.Messages[metadata.PreviousSnapshotID]; !known {
			return fmt.Errorf("cannot repair snapshot %q: previous snapshot %q is also missing from the index", latestSnapshotID, metadata.PreviousSnapshotID)
		}
	}

	idx.Messages[latestSnapshotID] = metadata
	return nil
}
