package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/dsg-dev/dsg-sync/pkg/filesystem"
)

// LocalTransport implements Transport when the source and destination are
// paths on the same host (spec §4.7). It copies files directly rather than
// shelling out, preserving symlink semantics and modification times.
type LocalTransport struct{}

// NewLocal returns a LocalTransport.
func NewLocal() *LocalTransport {
	return &LocalTransport{}
}

// CopyFiles implements Transport.CopyFiles.
func (t *LocalTransport) CopyFiles(ctx context.Context, fileList []string, srcBase, dstBase string, progress ProgressCallback) error {
	if len(fileList) == 0 {
		emit(progress, ProgressEvent{Kind: ProgressNoFiles})
		return nil
	}

	emit(progress, ProgressEvent{Kind: ProgressStartMetadata})
	totalBytes, err := totalSize(srcBase, fileList)
	if err != nil {
		return err
	}
	emit(progress, ProgressEvent{Kind: ProgressCompleteMetadata})

	emit(progress, ProgressEvent{Kind: ProgressStartFiles, TotalFiles: len(fileList), TotalBytes: totalBytes})

	for _, relative := range fileList {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		src := filepath.Join(srcBase, relative)
		dst := filepath.Join(dstBase, relative)

		size, err := copyOne(src, dst)
		if err != nil {
			return fmt.Errorf("unable to copy %s: %w", relative, err)
		}
		emit(progress, ProgressEvent{Kind: ProgressUpdateFiles, DeltaFiles: 1, DeltaBytes: size})
	}

	emit(progress, ProgressEvent{Kind: ProgressCompleteFiles})
	return nil
}

// RunCommand implements Transport.RunCommand by running argv as a local
// subprocess.
func (t *LocalTransport) RunCommand(ctx context.Context, argv []string) (CommandResult, error) {
	if len(argv) == 0 {
		return CommandResult{}, fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	} else if err != nil {
		return result, fmt.Errorf("unable to run command: %w", err)
	}
	return result, nil
}

// Close implements Transport.Close; LocalTransport holds no resources.
func (t *LocalTransport) Close() error {
	return nil
}

func totalSize(base string, fileList []string) (uint64, error) {
	var total uint64
	for _, relative := range fileList {
		info, err := os.Lstat(filepath.Join(base, relative))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, fmt.Errorf("unable to stat %s: %w", relative, err)
		}
		if info.Mode().IsRegular() {
			total += uint64(info.Size())
		}
	}
	return total, nil
}

func copyOne(src, dst string) (uint64, error) {
	info, err := os.Lstat(src)
	if err != nil {
		return 0, err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return 0, err
		}
		os.Remove(dst)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return 0, err
		}
		return 0, os.Symlink(target, dst)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, err
	}

	source, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer source.Close()

	data, err := io.ReadAll(source)
	if err != nil {
		return 0, err
	}

	if err := filesystem.WriteFileAtomic(dst, data, info.Mode().Perm(), nil); err != nil {
		return 0, err
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return 0, err
	}

	return uint64(len(data)), nil
}

// FormatBytes renders a byte count in human-readable form, used when
// logging ProgressEvents (spec §5's coarse progress callback carries raw
// counts; callers format them for display).
func FormatBytes(bytes uint64) string {
	return humanize.Bytes(bytes)
}

func emit(progress ProgressCallback, event ProgressEvent) {
	if progress != nil {
		progress(event)
	}
}
