package filesystem

import (
	"os"
	"path/filepath"

	"github.com/dsg-dev/dsg-sync/pkg/locking"
)

const (
	// MetadataDirectoryName is the name of the engine's metadata directory,
	// present at the root of every working copy and mirrored at the root of
	// the remote (spec §6, "Repository on-disk layout").
	MetadataDirectoryName = ".dsg"

	// LockFileName is the name of the advisory lock file inside the metadata
	// directory, coordinating access to the cache manifest (spec §5, "Local
	// cache (C)").
	LockFileName = "lock"

	// ProjectConfigName is the name of the project-level configuration file,
	// committed by users at the working copy root (spec §6).
	ProjectConfigName = ".dsgconfig.yml"

	// CacheManifestName is the name of the C-manifest file inside the
	// metadata directory (spec §6).
	CacheManifestName = "last-sync.json"

	// SyncMessagesName is the name of the HistoryIndex messages mirror.
	SyncMessagesName = "sync-messages.json"

	// TagMessagesName is the name of the HistoryIndex tags mirror.
	TagMessagesName = "tag-messages.json"

	// ArchiveDirectoryName is the subdirectory holding compressed historical
	// manifests, one per snapshot (spec §6).
	ArchiveDirectoryName = "archive"
)

// MetadataDirectoryPath returns the path to the metadata directory for the
// working copy rooted at root.
func MetadataDirectoryPath(root string) string {
	return filepath.Join(root, MetadataDirectoryName)
}

// CacheManifestPath returns the path to the C-manifest for the working copy
// rooted at root.
func CacheManifestPath(root string) string {
	return filepath.Join(MetadataDirectoryPath(root), CacheManifestName)
}

// SyncMessagesPath returns the path to the sync-messages mirror for the
// working copy rooted at root.
func SyncMessagesPath(root string) string {
	return filepath.Join(MetadataDirectoryPath(root), SyncMessagesName)
}

// TagMessagesPath returns the path to the tag-messages mirror for the
// working copy rooted at root.
func TagMessagesPath(root string) string {
	return filepath.Join(MetadataDirectoryPath(root), TagMessagesName)
}

// ArchiveDirectoryPath returns the path to the archive directory for the
// working copy rooted at root.
func ArchiveDirectoryPath(root string) string {
	return filepath.Join(MetadataDirectoryPath(root), ArchiveDirectoryName)
}

// AcquireMetadataLock acquires the advisory lock over the metadata directory
// for the working copy rooted at root, creating the metadata directory and
// lock file if necessary. A non-blocking acquisition failure is the
// retryable error described in spec §4.10, "Concurrent syncs".
func AcquireMetadataLock(root string) (*locking.Locker, error) {
	directory := MetadataDirectoryPath(root)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return nil, err
	}

	locker, err := locking.NewLocker(filepath.Join(directory, LockFileName), 0600)
	if err != nil {
		return nil, err
	}
	if err := locker.Lock(false); err != nil {
		locker.Close()
		return nil, err
	}

	return locker, nil
}
