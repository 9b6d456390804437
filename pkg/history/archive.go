package history

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dsg-dev/dsg-sync/pkg/compression"
)

// ArchiveFileName returns the archived-manifest filename for snapshotID
// (spec §6, "<metadata-dir>/archive/sN-sync.json.<compression>").
func ArchiveFileName(snapshotID string) string {
	return fmt.Sprintf("%s-sync.json.%s", snapshotID, compression.Extension)
}

// WriteArchivedManifest compresses manifestBytes (a serialized snapshot
// manifest) into archiveDir/<snapshotID>-sync.json.<compression>, creating
// archiveDir if necessary. The archive is write-once bookkeeping: spec §9
// leaves retention policy unspecified ("the core assumes unbounded
// retention unless the administrator prunes externally"), so this never
// removes prior archives itself.
func WriteArchivedManifest(archiveDir, snapshotID string, manifestBytes []byte) error {
	if err := os.MkdirAll(archiveDir, 0700); err != nil {
		return fmt.Errorf("unable to create archive directory: %w", err)
	}

	var compressed bytes.Buffer
	writer := compression.NewCompressingWriter(&compressed)
	if _, err := writer.Write(manifestBytes); err != nil {
		return fmt.Errorf("unable to compress archived manifest: %w", err)
	}

	path := filepath.Join(archiveDir, ArchiveFileName(snapshotID))
	if err := os.WriteFile(path, compressed.Bytes(), 0600); err != nil {
		return fmt.Errorf("unable to write archived manifest: %w", err)
	}
	return nil
}

// ReadArchivedManifest reads and decompresses the archived manifest for
// snapshotID from archiveDir, returning the original serialized bytes.
func ReadArchivedManifest(archiveDir, snapshotID string) ([]byte, error) {
	path := filepath.Join(archiveDir, ArchiveFileName(snapshotID))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	reader := compression.NewDecompressingReader(bytes.NewReader(data))
	var out bytes.Buffer
	if _, err := out.ReadFrom(reader); err != nil {
		return nil, fmt.Errorf("unable to decompress archived manifest: %w", err)
	}
	return out.Bytes(), nil
}
