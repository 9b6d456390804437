package backend

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dsg-dev/dsg-sync/pkg/logging"
)

// HardlinkFS implements SnapshotBackend on a filesystem without native
// snapshots, emulating them via hardlink trees (spec §4.8): each commit
// materializes into its own "sN/" subdirectory whose regular files are
// hardlinks into the live tree, so unchanged content costs no extra space.
type HardlinkFS struct {
	root   string
	live   string
	logger *logging.Logger
}

// NewHardlinkFS constructs a HardlinkFS rooted at root, with the live tree
// at root/live and snapshots at root/sN.
func NewHardlinkFS(root string, logger *logging.Logger) *HardlinkFS {
	return &HardlinkFS{root: root, live: filepath.Join(root, "live"), logger: logger}
}

// CreateDataset implements SnapshotBackend.CreateDataset.
func (h *HardlinkFS) CreateDataset(ctx context.Context) error {
	return os.MkdirAll(h.live, 0755)
}

// DestroyDataset implements SnapshotBackend.DestroyDataset.
func (h *HardlinkFS) DestroyDataset(ctx context.Context) error {
	return os.RemoveAll(h.root)
}

// StageClone implements SnapshotBackend.StageClone by hardlink-copying the
// named snapshot's tree (or the live tree, for the genesis case) into a
// staging directory (spec §4.10, phase 4: "materialize a working snapshot
// into a staging directory").
func (h *HardlinkFS) StageClone(ctx context.Context, from string) (Staging, error) {
	staging := filepath.Join(h.root, ".staging-"+sanitize(from))
	if err := os.RemoveAll(staging); err != nil {
		return Staging{}, fmt.Errorf("unable to clear prior staging directory: %w", err)
	}

	source := h.live
	if from != "" {
		source = filepath.Join(h.root, from)
	}

	if err := os.MkdirAll(staging, 0755); err != nil {
		return Staging{}, fmt.Errorf("unable to create staging directory: %w", err)
	}

	if _, err := os.Stat(source); err == nil {
		if err := hardlinkTree(source, staging); err != nil {
			return Staging{}, fmt.Errorf("unable to materialize snapshot %q: %w", from, err)
		}
	}

	return Staging{Path: staging, name: from}, nil
}

// Commit implements SnapshotBackend.Commit by replacing the live tree with
// a hardlinked copy of the staging directory, then renaming the staging
// directory to the new snapshot directory (spec §4.10, phase 6: "rename
// staging directory into place and materialize sN").
func (h *HardlinkFS) Commit(ctx context.Context, staging Staging, name string) error {
	snapshotDir := filepath.Join(h.root, name)
	if err := os.RemoveAll(h.live); err != nil {
		return fmt.Errorf("unable to clear live tree: %w", err)
	}
	if err := hardlinkTree(staging.Path, h.live); err != nil {
		return fmt.Errorf("unable to update live tree: %w", err)
	}
	if err := os.RemoveAll(snapshotDir); err != nil {
		return fmt.Errorf("unable to clear prior snapshot directory: %w", err)
	}
	if err := os.Rename(staging.Path, snapshotDir); err != nil {
		return fmt.Errorf("unable to materialize snapshot %q: %w", name, err)
	}
	return nil
}

// Rollback implements SnapshotBackend.Rollback by removing the staging
// directory (spec §7).
func (h *HardlinkFS) Rollback(ctx context.Context, staging Staging) error {
	return os.RemoveAll(staging.Path)
}

// ListSnapshots implements SnapshotBackend.ListSnapshots.
func (h *HardlinkFS) ListSnapshots(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(h.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "s") {
			names = append(names, entry.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return len(names[i]) < len(names[j]) || (len(names[i]) == len(names[j]) && names[i] < names[j])
	})
	return names, nil
}

// NextSnapshotName implements SnapshotNamer.
func (h *HardlinkFS) NextSnapshotName(previous string) (string, error) {
	return nextSequentialName(previous)
}

// ReadFile implements SnapshotBackend.ReadFile.
func (h *HardlinkFS) ReadFile(ctx context.Context, name, relativePath string) ([]byte, error) {
	base := h.live
	if name != "" {
		base = filepath.Join(h.root, name)
	}
	return os.ReadFile(filepath.Join(base, relativePath))
}

func sanitize(name string) string {
	if name == "" {
		return "genesis"
	}
	return name
}

// hardlinkTree recursively hardlinks every regular file from src into dst,
// recreating directories and preserving symlinks by recreating them rather
// than linking (spec §4.8, "materialize_snapshot... by hardlink-copying the
// live tree into a snapshot directory").
func hardlinkTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, relative)
		if relative == "." {
			return os.MkdirAll(target, 0755)
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		switch {
		case entry.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			linkTarget, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(linkTarget, target)
		default:
			return os.Link(path, target)
		}
	})
}
