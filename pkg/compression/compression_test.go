package compression

import (
	"bytes"
	"io"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	original := []byte(`{"metadata":{"snapshot_id":"s1"},"entries":{}}`)

	var buffer bytes.Buffer
	writer := NewCompressingWriter(&buffer)
	if _, err := writer.Write(original); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	reader := NewDecompressingReader(&buffer)
	decompressed, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	if !bytes.Equal(decompressed, original) {
		t.Fatalf("round trip mismatch: got %q, want %q", decompressed, original)
	}
}

func TestCompressedSmallerForRepetitiveInput(t *testing.T) {
	original := bytes.Repeat([]byte("aaaaaaaaaa"), 200)

	var buffer bytes.Buffer
	writer := NewCompressingWriter(&buffer)
	if _, err := writer.Write(original); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if buffer.Len() >= len(original) {
		t.Fatalf("expected compressed size (%d) to be smaller than original (%d)", buffer.Len(), len(original))
	}
}
