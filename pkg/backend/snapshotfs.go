package backend

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dsg-dev/dsg-sync/pkg/environment"
	"github.com/dsg-dev/dsg-sync/pkg/logging"
)

// localeOverride pins the locale `zfs` subprocesses run under so that
// `zfs list`'s tab-separated output parses the same way regardless of the
// invoking user's environment.
var localeOverride = environment.Format(map[string]string{"LC_ALL": "C"})

// SnapshotFS implements SnapshotBackend atop a copy-on-write filesystem
// with native named snapshots and atomic clone/promote, grounded on
// original_source/src/dsg/backends.py's ZFSOperations, which shells out to
// the `zfs` command line tool (SPEC_FULL §3.5). The commands it runs are
// fixed ZFS invocations; it does not drive other snapshot-capable
// filesystems.
type SnapshotFS struct {
	pool       string
	dataset    string
	mountpoint string
	logger     *logging.Logger
}

// NewSnapshotFS constructs a SnapshotFS managing pool/dataset, mounted at
// mountpoint.
func NewSnapshotFS(pool, dataset, mountpoint string, logger *logging.Logger) *SnapshotFS {
	return &SnapshotFS{pool: pool, dataset: dataset, mountpoint: mountpoint, logger: logger}
}

func (s *SnapshotFS) fullDataset() string {
	return s.pool + "/" + s.dataset
}

func (s *SnapshotFS) run(ctx context.Context, argv ...string) (string, error) {
	s.logger.Debugf("running %s", strings.Join(argv, " "))
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), localeOverride...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("command %q failed: %w: %s", strings.Join(argv, " "), err, string(output))
	}
	return string(output), nil
}

// CreateDataset implements SnapshotBackend.CreateDataset.
func (s *SnapshotFS) CreateDataset(ctx context.Context) error {
	if _, err := s.run(ctx, "zfs", "create", s.fullDataset()); err != nil {
		return err
	}
	_, err := s.run(ctx, "zfs", "set", "mountpoint="+s.mountpoint, s.fullDataset())
	return err
}

// DestroyDataset implements SnapshotBackend.DestroyDataset.
func (s *SnapshotFS) DestroyDataset(ctx context.Context) error {
	_, err := s.run(ctx, "zfs", "destroy", "-r", s.fullDataset())
	return err
}

// StageClone implements SnapshotBackend.StageClone by cloning the named
// snapshot into a temporary dataset (spec §4.10, phase 4: "create a
// temporary clone of the latest remote snapshot").
func (s *SnapshotFS) StageClone(ctx context.Context, from string) (Staging, error) {
	stagingDataset := s.fullDataset() + "-staging-" + from
	stagingMount := s.mountpoint + "-staging-" + from

	sourceSnapshot := s.fullDataset()
	if from != "" {
		sourceSnapshot = s.fullDataset() + "@" + from
	} else {
		if _, err := s.run(ctx, "zfs", "create", stagingDataset); err != nil {
			return Staging{}, err
		}
		if _, err := s.run(ctx, "zfs", "set", "mountpoint="+stagingMount, stagingDataset); err != nil {
			return Staging{}, err
		}
		return Staging{Path: stagingMount, name: from}, nil
	}

	if _, err := s.run(ctx, "zfs", "clone", sourceSnapshot, stagingDataset); err != nil {
		return Staging{}, err
	}
	if _, err := s.run(ctx, "zfs", "set", "mountpoint="+stagingMount, stagingDataset); err != nil {
		return Staging{}, err
	}
	return Staging{Path: stagingMount, name: from}, nil
}

// Commit implements SnapshotBackend.Commit: promote the clone to become the
// live dataset, then take the named snapshot (spec §4.10, phase 6).
func (s *SnapshotFS) Commit(ctx context.Context, staging Staging, name string) error {
	stagingDataset := s.fullDataset() + "-staging-" + staging.name

	if _, err := s.run(ctx, "zfs", "promote", stagingDataset); err != nil {
		return err
	}
	if _, err := s.run(ctx, "zfs", "rename", stagingDataset, s.fullDataset()); err != nil {
		return err
	}
	if _, err := s.run(ctx, "zfs", "set", "mountpoint="+s.mountpoint, s.fullDataset()); err != nil {
		return err
	}
	_, err := s.run(ctx, "zfs", "snapshot", s.fullDataset()+"@"+name)
	return err
}

// Rollback implements SnapshotBackend.Rollback by destroying the temporary
// clone, leaving the live dataset untouched (spec §7).
func (s *SnapshotFS) Rollback(ctx context.Context, staging Staging) error {
	stagingDataset := s.fullDataset() + "-staging-" + staging.name
	_, err := s.run(ctx, "zfs", "destroy", "-r", stagingDataset)
	return err
}

// ListSnapshots implements SnapshotBackend.ListSnapshots.
func (s *SnapshotFS) ListSnapshots(ctx context.Context) ([]string, error) {
	output, err := s.run(ctx, "zfs", "list", "-t", "snapshot", "-H", "-o", "name", "-s", "creation", s.fullDataset())
	if err != nil {
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}
		if at := strings.LastIndex(line, "@"); at >= 0 {
			names = append(names, line[at+1:])
		}
	}
	return names, nil
}

// ReadFile implements SnapshotBackend.ReadFile by reading through ZFS's
// auto-mounted .zfs/snapshot directory, avoiding a clone for a single-file
// read.
func (s *SnapshotFS) ReadFile(ctx context.Context, name, relativePath string) ([]byte, error) {
	base := s.mountpoint
	if name != "" {
		base = filepath.Join(s.mountpoint, ".zfs", "snapshot", name)
	}
	return os.ReadFile(filepath.Join(base, relativePath))
}

// NextSnapshotName implements SnapshotNamer (spec §4.8, "sN immediately
// follows sN-1").
func (s *SnapshotFS) NextSnapshotName(previous string) (string, error) {
	return nextSequentialName(previous)
}

// nextSequentialName implements the "s1, s2, ..." naming scheme shared by
// both backend kinds.
func nextSequentialName(previous string) (string, error) {
	if previous == "" {
		return "s1", nil
	}
	if !strings.HasPrefix(previous, "s") {
		return "", fmt.Errorf("invalid snapshot name: %q", previous)
	}
	n, err := strconv.Atoi(previous[1:])
	if err != nil {
		return "", fmt.Errorf("invalid snapshot name: %q", previous)
	}
	return fmt.Sprintf("s%d", n+1), nil
}
