// Package backend implements SnapshotBackend (spec §4.8): the
// filesystem-specific primitives a Transaction uses to stage, commit, and
// roll back a snapshot. Grounded on original_source/src/dsg/backends.py's
// separation of SnapshotOperations from the read/write Backend
// (SPEC_FULL §3.5).
package backend

import "context"

// SnapshotNamer allocates the strictly ascending "sN" snapshot names spec
// §4.8 requires ("s1", "s2", ... in strict ascending order; sN immediately
// follows sN-1"). Both SnapshotFS and HardlinkFS implement it identically.
type SnapshotNamer interface {
	// NextSnapshotName returns the name that should follow the given
	// previous name ("" for the genesis snapshot).
	NextSnapshotName(previous string) (string, error)
}

// SnapshotBackend abstracts a remote's filesystem primitives for creating,
// staging, and committing snapshots (spec §4.8).
type SnapshotBackend interface {
	SnapshotNamer

	// CreateDataset provisions the backend's root dataset/directory if it
	// does not already exist.
	CreateDataset(ctx context.Context) error
	// DestroyDataset removes the backend's root dataset/directory and
	// everything beneath it. Used only by out-of-contract administrative
	// operations (spec §3, "Snapshots... destroyed only by an
	// administrative retention operation outside the core's contract").
	DestroyDataset(ctx context.Context) error

	// StageClone creates a writable staging area seeded from the snapshot
	// named from (empty for a fresh/empty backend), returning a path or
	// handle the caller can apply edits against.
	StageClone(ctx context.Context, from string) (Staging, error)

	// Commit promotes staging into the live dataset and creates the named
	// snapshot atomically (spec §4.10, phase 6).
	Commit(ctx context.Context, staging Staging, name string) error

	// Rollback discards staging without touching the live dataset (spec
	// §7, "SnapshotFS: destroy the temporary clone" / "HardlinkFS: remove
	// the staging directory").
	Rollback(ctx context.Context, staging Staging) error

	// ListSnapshots returns every snapshot name committed so far, in
	// creation order.
	ListSnapshots(ctx context.Context) ([]string, error)

	// ReadFile reads relativePath from the named snapshot without staging
	// a full clone, used to fetch R's committed manifest during
	// precondition checks and to back HistoryIndex.Repair (spec §4.10,
	// phase 1: "Fetch R-manifest"). An empty name reads from the live
	// dataset.
	ReadFile(ctx context.Context, name, relativePath string) ([]byte, error)
}

// Staging identifies an in-progress staged snapshot. Its Path is the
// filesystem location a Transaction applies plan edits against; its
// concrete meaning (a ZFS clone's mountpoint, a hardlink tree's staging
// directory) is backend-specific.
type Staging struct {
	Path string
	name string
}
