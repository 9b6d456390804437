package history

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadArchivedManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := []byte(`{"metadata":{"snapshot_id":"s1"},"entries":{}}`)

	if err := WriteArchivedManifest(dir, "s1", original); err != nil {
		t.Fatalf("WriteArchivedManifest failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "s1-sync.json.flate")); err != nil {
		t.Fatalf("expected archive file at conventional path: %v", err)
	}

	roundTripped, err := ReadArchivedManifest(dir, "s1")
	if err != nil {
		t.Fatalf("ReadArchivedManifest failed: %v", err)
	}
	if !bytes.Equal(roundTripped, original) {
		t.Fatalf("round trip mismatch: got %q, want %q", roundTripped, original)
	}

	if _, err := ReadArchivedManifest(dir, "s2"); err == nil {
		t.Fatal("expected error reading nonexistent snapshot archive")
	}
}

func TestWriteArchivedManifestCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "archive")
	if err := WriteArchivedManifest(dir, "s1", []byte("data")); err != nil {
		t.Fatalf("WriteArchivedManifest failed: %v", err)
	}
}
