// Package transport implements the Transport abstraction (spec §4.7):
// moving bytes between a working copy and a backend, and running commands
// at the remote side. Transports never interpret the file list they are
// given; the engine alone decides what is synced.
package transport

import "context"

// ProgressEvent is one of the coarse progress callback events spec §5
// defines.
type ProgressEvent struct {
	// Kind identifies which event this is.
	Kind ProgressKind
	// TotalFiles and TotalBytes are populated for StartFiles.
	TotalFiles int
	TotalBytes uint64
	// DeltaFiles and DeltaBytes are populated for UpdateFiles.
	DeltaFiles int
	DeltaBytes uint64
}

// ProgressKind identifies a ProgressEvent's kind.
type ProgressKind uint8

const (
	ProgressStartMetadata ProgressKind = iota
	ProgressCompleteMetadata
	ProgressStartFiles
	ProgressUpdateFiles
	ProgressCompleteFiles
	ProgressNoFiles
)

// ProgressCallback receives ProgressEvents during CopyFiles. The engine
// never invokes it from multiple goroutines (spec §5, "must be re-entrant
// with respect to itself").
type ProgressCallback func(ProgressEvent)

// CommandResult is the outcome of RunCommand.
type CommandResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Transport is the minimal interface spec §4.7 defines: copy a batch of
// files by relative path, and run a remote command.
type Transport interface {
	// CopyFiles copies every path in fileList (relative paths shared by
	// both sides) from srcBase to dstBase. The transport does not inspect
	// or filter fileList; the caller has already decided its contents.
	CopyFiles(ctx context.Context, fileList []string, srcBase, dstBase string, progress ProgressCallback) error

	// RunCommand runs argv at the transport's remote side (or locally, for
	// LocalTransport) and returns its exit code and captured output.
	RunCommand(ctx context.Context, argv []string) (CommandResult, error)

	// Close releases any held resources. Neither LocalTransport nor
	// RemoteStreamTransport holds any between calls.
	Close() error
}
