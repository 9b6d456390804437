// Package transaction implements the Transaction orchestrator (spec §4.10):
// the seven-phase sequence (precondition checks, normalize, plan, stage,
// verify, commit, cleanup) that turns a working copy's observed state into
// a new committed snapshot, with rollback on any failure before commit.
package transaction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dsg-dev/dsg-sync/pkg/backend"
	"github.com/dsg-dev/dsg-sync/pkg/contextutil"
	"github.com/dsg-dev/dsg-sync/pkg/dsgerrors"
	"github.com/dsg-dev/dsg-sync/pkg/filesystem"
	"github.com/dsg-dev/dsg-sync/pkg/hash"
	"github.com/dsg-dev/dsg-sync/pkg/history"
	"github.com/dsg-dev/dsg-sync/pkg/logging"
	"github.com/dsg-dev/dsg-sync/pkg/manifest"
	"github.com/dsg-dev/dsg-sync/pkg/manifest/validate"
	"github.com/dsg-dev/dsg-sync/pkg/scan"
	"github.com/dsg-dev/dsg-sync/pkg/sync/core"
	"github.com/dsg-dev/dsg-sync/pkg/sync/plan"
	"github.com/dsg-dev/dsg-sync/pkg/transport"
)

// metadataManifestPath is the relative path, under a working copy or a
// backend snapshot, at which the committed manifest lives (spec §6,
// "<metadata-dir>/last-sync.json").
func metadataManifestPath() string {
	return filepath.Join(filesystem.MetadataDirectoryName, filesystem.CacheManifestName)
}

// checkCancelled returns a KindCancelled error if ctx has been cancelled,
// checked at each phase boundary so a cancelled run fails fast with a
// recognizable error kind rather than surfacing as an opaque I/O failure
// mid-phase (spec §6, CancelledError).
func checkCancelled(ctx context.Context) error {
	if contextutil.IsCancelled(ctx) {
		return dsgerrors.New(dsgerrors.KindCancelled, "transaction cancelled")
	}
	return nil
}

// Options configures a single Transaction run.
type Options struct {
	// Root is the working copy's root directory (L).
	Root string
	// Transport moves file bytes between Root and the staging area
	// Backend.StageClone returns; uploads and downloads during phase 4
	// always land in that clone, never directly on the live dataset (spec
	// §4.10, "edits are applied against the clone").
	Transport transport.Transport
	// Backend provides the snapshot lifecycle primitives.
	Backend backend.SnapshotBackend
	// History is the append-only snapshot/tag record, mirrored locally and
	// on the backend. If nil, Run loads it from the working copy's
	// sync-messages/tag-messages mirrors (spec §6) and persists updates
	// back to them after a successful commit.
	History *history.Index
	// Writer is the user id recorded as both Entry.Writer and
	// Metadata.CreatedBy for this sync.
	Writer string
	// SnapshotMessage is the free-text message attached to the new
	// snapshot, if one is created.
	SnapshotMessage string
	// Algorithm is the content-hash algorithm used for scanning and
	// manifest hashing.
	Algorithm hash.Algorithm
	// Ignore is the scanner's ignore policy.
	Ignore scan.IgnorePolicy
	// DataDirs restricts scanning to these top-level directories, per
	// project configuration (SPEC_FULL §3.2).
	DataDirs []string
	// Normalize, when true, runs the Normalizer over any paths the Scanner
	// flags before proceeding (spec §4.10, phase 2).
	Normalize bool
	// PlanOptions configures the SyncPlanner.
	PlanOptions plan.Options
	// Progress receives coarse progress events during file transfer (spec
	// §5).
	Progress transport.ProgressCallback
	// Logger receives diagnostic output. Safe to leave nil.
	Logger *logging.Logger
	// Now returns the current time for stamping CreatedAt fields. Defaults
	// to time.Now if nil; tests supply a fixed clock.
	Now func() time.Time
}

// Result summarizes a completed Transaction run.
type Result struct {
	// SnapshotID is the newly committed snapshot's id, or "" if the sync
	// was a no-op (L, C, and R already agreed on every path).
	SnapshotID string
	Plan       plan.Plan
	Warnings   []validate.Problem
}

// Run executes the full seven-phase sequence described in spec §4.10.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger.Sublogger("transaction")
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	runID := uuid.NewString()
	logger.Debugf("starting transaction %s for %s", runID, opts.Root)

	lock, err := filesystem.AcquireMetadataLock(opts.Root)
	if err != nil {
		return nil, dsgerrors.Wrap(dsgerrors.KindAccess, "unable to acquire metadata lock; another sync is likely in progress", err)
	}
	defer func() {
		lock.Unlock()
		lock.Close()
	}()

	// Phase 1: precondition checks.
	cacheManifest, err := loadManifestOrEmpty(filesystem.CacheManifestPath(opts.Root))
	if err != nil {
		return nil, dsgerrors.Wrap(dsgerrors.KindConfig, "unable to load cache manifest", err)
	}

	snapshots, err := opts.Backend.ListSnapshots(ctx)
	if err != nil {
		return nil, dsgerrors.Wrap(dsgerrors.KindAccess, "unable to list backend snapshots", err)
	}
	latestSnapshot := ""
	if len(snapshots) > 0 {
		latestSnapshot = snapshots[len(snapshots)-1]
	}

	if opts.History == nil {
		loaded, loadErr := history.Load(opts.Root)
		if loadErr != nil {
			return nil, dsgerrors.Wrap(dsgerrors.KindConfig, "unable to load history index", loadErr)
		}
		opts.History = loaded
	}

	if latestSnapshot != "" {
		reader := func(snapshotID string) (manifest.Metadata, error) {
			return readSnapshotMetadata(ctx, opts.Backend, snapshotID)
		}
		if err := opts.History.Repair(latestSnapshot, reader); err != nil {
			return nil, dsgerrors.Wrap(dsgerrors.KindIntegrity, "unable to repair history index", err)
		}
	}

	remoteManifest, err := loadRemoteManifestOrEmpty(ctx, opts.Backend, latestSnapshot)
	if err != nil {
		return nil, dsgerrors.Wrap(dsgerrors.KindAccess, "unable to fetch remote manifest", err)
	}

	if cacheManifest.Metadata.SnapshotID != "" && remoteManifest.Metadata.SnapshotID != "" {
		if cacheManifest.Metadata.SnapshotID != remoteManifest.Metadata.PreviousSnapshotID &&
			cacheManifest.Metadata.SnapshotID != remoteManifest.Metadata.SnapshotID {
			return nil, dsgerrors.New(dsgerrors.KindIntegrity, "cache manifest does not chain to the remote snapshot's immediate history")
		}
	}

	scanResult, err := scan.Scan(scan.Options{
		Root:                  opts.Root,
		Ignore:                opts.Ignore,
		DataDirs:              opts.DataDirs,
		HashFiles:             true,
		Algorithm:             opts.Algorithm,
		Writer:                opts.Writer,
		MetadataDirectoryName: filesystem.MetadataDirectoryName,
	})
	if err != nil {
		return nil, dsgerrors.Wrap(dsgerrors.KindAccess, "unable to scan working copy", err)
	}

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// Phase 2: normalize if requested.
	if len(scanResult.Warnings) > 0 {
		if !opts.Normalize {
			return nil, dsgerrors.New(dsgerrors.KindValidation, fmt.Sprintf("%d path(s) fail validation; normalization was not requested", len(scanResult.Warnings)))
		}

		candidates := make([]validate.Candidate, 0, len(scanResult.Warnings))
		seen := make(map[string]bool)
		for _, problem := range scanResult.Warnings {
			if seen[problem.Path] {
				continue
			}
			seen[problem.Path] = true
			entry, ok := scanResult.Manifest.Entries[problem.Path]
			candidates = append(candidates, validate.Candidate{
				Path:          problem.Path,
				IsSymlink:     ok && entry.IsSymlink(),
				SymlinkTarget: entry.Reference,
			})
		}

		report := validate.Normalize(opts.Root, candidates, logger)
		if len(report.Errors) > 0 {
			return nil, dsgerrors.New(dsgerrors.KindValidation, fmt.Sprintf("%d path(s) could not be normalized", len(report.Errors)))
		}

		scanResult, err = scan.Scan(scan.Options{
			Root:                  opts.Root,
			Ignore:                opts.Ignore,
			DataDirs:              opts.DataDirs,
			HashFiles:             true,
			Algorithm:             opts.Algorithm,
			Writer:                opts.Writer,
			MetadataDirectoryName: filesystem.MetadataDirectoryName,
		})
		if err != nil {
			return nil, dsgerrors.Wrap(dsgerrors.KindAccess, "unable to re-scan working copy after normalization", err)
		}
		if len(scanResult.Warnings) > 0 {
			return nil, dsgerrors.New(dsgerrors.KindValidation, fmt.Sprintf("%d path(s) still fail validation after normalization", len(scanResult.Warnings)))
		}
	}

	localManifest := scanResult.Manifest

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	// Phase 3: plan.
	states := core.Merge(localManifest, cacheManifest, remoteManifest)
	builtPlan := plan.Build(states, opts.PlanOptions)
	if builtPlan.HasConflicts() {
		return nil, dsgerrors.NewConflict(builtPlan.Conflicts)
	}

	result := &Result{Plan: builtPlan, Warnings: scanResult.Warnings}

	if len(builtPlan.UploadFiles) == 0 && len(builtPlan.DownloadFiles) == 0 &&
		len(builtPlan.DeleteLocal) == 0 && len(builtPlan.DeleteRemote) == 0 &&
		len(builtPlan.CacheOnlyUpdates) == 0 {
		// Every path already agrees; nothing to commit (spec §8, "Boundary
		// behaviors", idempotent second sync).
		return result, nil
	}

	// Phase 4: stage.
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}
	staging, err := opts.Backend.StageClone(ctx, latestSnapshot)
	if err != nil {
		return nil, dsgerrors.Wrap(dsgerrors.KindTransaction, "unable to create staging area", err)
	}
	rollback := func(cause error) error {
		if rollbackErr := opts.Backend.Rollback(ctx, staging); rollbackErr != nil {
			logger.Errorf("rollback failed: %v", rollbackErr)
		}
		return cause
	}

	if err := applyRemoteDeletes(staging.Path, builtPlan.DeleteRemote); err != nil {
		return nil, rollback(dsgerrors.Wrap(dsgerrors.KindTransaction, "unable to apply remote deletions", err))
	}
	if err := applyLocalDeletes(opts.Root, builtPlan.DeleteLocal); err != nil {
		return nil, rollback(dsgerrors.Wrap(dsgerrors.KindTransaction, "unable to apply local deletions", err))
	}

	if len(builtPlan.UploadFiles) > 0 {
		// Uploads land in the clone, not the live dataset directly: phase 6's
		// commit is the only operation that makes new bytes visible on the
		// live dataset (spec §4.10).
		if err := opts.Transport.CopyFiles(ctx, builtPlan.UploadFiles, opts.Root, staging.Path, opts.Progress); err != nil {
			return nil, rollback(dsgerrors.Wrap(dsgerrors.KindTransaction, "unable to upload files", err))
		}
	}
	if len(builtPlan.DownloadFiles) > 0 {
		if err := opts.Transport.CopyFiles(ctx, builtPlan.DownloadFiles, staging.Path, opts.Root, opts.Progress); err != nil {
			return nil, rollback(dsgerrors.Wrap(dsgerrors.KindTransaction, "unable to download files", err))
		}
	}

	// Determine the new snapshot's entries by re-scanning the staged tree
	// (the authoritative post-edit R-side state).
	stagedScan, err := scan.Scan(scan.Options{
		Root:                  staging.Path,
		Ignore:                opts.Ignore,
		DataDirs:              opts.DataDirs,
		HashFiles:             true,
		Algorithm:             opts.Algorithm,
		Writer:                opts.Writer,
		MetadataDirectoryName: filesystem.MetadataDirectoryName,
	})
	if err != nil {
		return nil, rollback(dsgerrors.Wrap(dsgerrors.KindTransaction, "unable to scan staged snapshot", err))
	}

	snapshotID, err := opts.Backend.NextSnapshotName(latestSnapshot)
	if err != nil {
		return nil, rollback(dsgerrors.Wrap(dsgerrors.KindTransaction, "unable to allocate snapshot name", err))
	}

	newManifest := stagedScan.Manifest
	if err := newManifest.Finalize(
		snapshotID,
		now().UTC().Format(time.RFC3339),
		opts.Writer,
		opts.SnapshotMessage,
		remoteManifest.Metadata.SnapshotID,
		remoteManifest.Metadata.SnapshotHash,
		opts.Algorithm,
	); err != nil {
		return nil, rollback(dsgerrors.Wrap(dsgerrors.KindTransaction, "unable to finalize snapshot metadata", err))
	}

	manifestBytes, err := newManifest.Serialize()
	if err != nil {
		return nil, rollback(dsgerrors.Wrap(dsgerrors.KindTransaction, "unable to serialize snapshot manifest", err))
	}
	stagedManifestPath := filepath.Join(staging.Path, metadataManifestPath())
	if err := os.MkdirAll(filepath.Dir(stagedManifestPath), 0700); err != nil {
		return nil, rollback(dsgerrors.Wrap(dsgerrors.KindTransaction, "unable to create staged metadata directory", err))
	}
	if err := filesystem.WriteFileAtomic(stagedManifestPath, manifestBytes, 0600, logger); err != nil {
		return nil, rollback(dsgerrors.Wrap(dsgerrors.KindTransaction, "unable to write staged manifest", err))
	}

	// Phase 5: verify.
	if err := checkCancelled(ctx); err != nil {
		return nil, rollback(err)
	}
	if err := newManifest.VerifyIntegrity(opts.Algorithm); err != nil {
		return nil, rollback(dsgerrors.Wrap(dsgerrors.KindIntegrity, "staged snapshot failed integrity verification", err))
	}
	if err := checkCancelled(ctx); err != nil {
		return nil, rollback(err)
	}

	// Phase 6: commit. Cancellation is no longer honored past this point:
	// once staging has been verified, the run commits rather than leaving
	// R in a silently abandoned staged state.
	if err := opts.Backend.Commit(ctx, staging, snapshotID); err != nil {
		return nil, rollback(dsgerrors.Wrap(dsgerrors.KindTransaction, "unable to commit staged snapshot", err))
	}

	if err := opts.History.Append(newManifest.Metadata); err != nil {
		logger.Errorf("post-commit history append failed; next sync will repair via Index.Repair: %v", err)
	} else if err := opts.History.Save(opts.Root, logger); err != nil {
		logger.Errorf("unable to persist history index mirrors: %v", err)
	}

	if err := history.WriteArchivedManifest(filesystem.ArchiveDirectoryPath(opts.Root), snapshotID, manifestBytes); err != nil {
		logger.Errorf("unable to write archived manifest for %s: %v", snapshotID, err)
	}

	if err := filesystem.WriteFileAtomic(filesystem.CacheManifestPath(opts.Root), manifestBytes, 0600, logger); err != nil {
		return nil, dsgerrors.Wrap(dsgerrors.KindTransaction, "snapshot committed but local cache rewrite failed", err)
	}

	// Phase 7: cleanup is implicit: StageClone's temporary names do not
	// outlive Commit/Rollback in either backend implementation.
	result.SnapshotID = snapshotID
	return result, nil
}

func loadManifestOrEmpty(path string) (*manifest.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return manifest.New(), nil
		}
		return nil, err
	}
	return manifest.Parse(data)
}

func loadRemoteManifestOrEmpty(ctx context.Context, b backend.SnapshotBackend, snapshotID string) (*manifest.Manifest, error) {
	if snapshotID == "" {
		return manifest.New(), nil
	}
	data, err := b.ReadFile(ctx, snapshotID, metadataManifestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return manifest.New(), nil
		}
		return nil, err
	}
	return manifest.Parse(data)
}

func readSnapshotMetadata(ctx context.Context, b backend.SnapshotBackend, snapshotID string) (manifest.Metadata, error) {
	data, err := b.ReadFile(ctx, snapshotID, metadataManifestPath())
	if err != nil {
		return manifest.Metadata{}, err
	}
	parsed, err := manifest.Parse(data)
	if err != nil {
		return manifest.Metadata{}, err
	}
	return parsed.Metadata, nil
}

func applyLocalDeletes(root string, paths []string) error {
	for _, path := range paths {
		if err := os.RemoveAll(filepath.Join(root, path)); err != nil {
			return fmt.Errorf("unable to remove %q locally: %w", path, err)
		}
	}
	return nil
}

func applyRemoteDeletes(stagingRoot string, paths []string) error {
	for _, path := range paths {
		if err := os.RemoveAll(filepath.Join(stagingRoot, path)); err != nil {
			return fmt.Errorf("unable to remove %q from staging: %w", path, err)
		}
	}
	return nil
}
