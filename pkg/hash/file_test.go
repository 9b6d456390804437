package hash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReaderDeterministic(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		algorithm Algorithm
	}{
		{"empty sha256", "", AlgorithmSHA256},
		{"nonempty sha256", "id,v\n1,10\n", AlgorithmSHA256},
		{"empty sha1", "", AlgorithmSHA1},
		{"nonempty sha1", "id,v\n1,10\n", AlgorithmSHA1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			first, err := Reader(strings.NewReader(test.content), test.algorithm)
			if err != nil {
				t.Fatalf("first hash failed: %v", err)
			}
			second, err := Reader(strings.NewReader(test.content), test.algorithm)
			if err != nil {
				t.Fatalf("second hash failed: %v", err)
			}
			if first != second {
				t.Fatalf("hash not deterministic: %s != %s", first, second)
			}
			if first == "" {
				t.Fatal("hash should never be empty, even for empty content")
			}
		})
	}
}

func TestReaderDistinguishesContent(t *testing.T) {
	a, err := Reader(strings.NewReader("id,v\n1,10\n"), AlgorithmSHA256)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	b, err := Reader(strings.NewReader("id,v\n1,99\n"), AlgorithmSHA256)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if a == b {
		t.Fatal("different content hashed to the same digest")
	}
}

func TestFileMatchesReader(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "x.csv")
	if err := os.WriteFile(path, []byte("id,v\n1,10\n"), 0644); err != nil {
		t.Fatalf("unable to write fixture: %v", err)
	}

	fromFile, err := File(path, AlgorithmSHA256)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}
	fromReader, err := Reader(strings.NewReader("id,v\n1,10\n"), AlgorithmSHA256)
	if err != nil {
		t.Fatalf("Reader failed: %v", err)
	}
	if fromFile != fromReader {
		t.Fatalf("File and Reader disagree: %s != %s", fromFile, fromReader)
	}
}

func TestAlgorithmMarshalRoundTrip(t *testing.T) {
	for _, algorithm := range []Algorithm{AlgorithmSHA1, AlgorithmSHA256} {
		text, err := algorithm.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText failed: %v", err)
		}
		var parsed Algorithm
		if err := parsed.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText failed: %v", err)
		}
		if parsed != algorithm {
			t.Fatalf("round trip mismatch: %v != %v", parsed, algorithm)
		}
	}
}
