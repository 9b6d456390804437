// Package hash implements the engine's content hashing contract (spec §4.1):
// a deterministic, collision-resistant digest of a regular file's bytes,
// stable across platforms and never applied to symlinks.
package hash

import (
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
)

// Algorithm identifies a supported content hash algorithm. The zero value is
// invalid; use Default for the algorithm new manifests should use.
type Algorithm uint8

const (
	// AlgorithmInvalid is the zero value and is never a valid algorithm.
	AlgorithmInvalid Algorithm = iota
	// AlgorithmSHA1 selects SHA-1. Retained for manifests created by older
	// format versions; new manifests should use AlgorithmSHA256.
	AlgorithmSHA1
	// AlgorithmSHA256 selects SHA-256.
	AlgorithmSHA256
)

// Default is the algorithm used for newly created manifests.
const Default = AlgorithmSHA256

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	switch a {
	case AlgorithmSHA1:
		return []byte("sha1"), nil
	case AlgorithmSHA256:
		return []byte("sha256"), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm: %d", a)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Algorithm) UnmarshalText(text []byte) error {
	switch string(text) {
	case "sha1":
		*a = AlgorithmSHA1
	case "sha256":
		*a = AlgorithmSHA256
	default:
		return fmt.Errorf("unknown hash algorithm specification: %s", string(text))
	}
	return nil
}

// Supported reports whether a is a usable (SHA-1 or SHA-256) algorithm
// value.
func (a Algorithm) Supported() bool {
	switch a {
	case AlgorithmSHA1, AlgorithmSHA256:
		return true
	default:
		return false
	}
}

// Factory returns a constructor for the algorithm's hash.Hash implementation.
// It panics if invoked on an unsupported algorithm value.
func (a Algorithm) Factory() func() hash.Hash {
	switch a {
	case AlgorithmSHA1:
		return sha1.New
	case AlgorithmSHA256:
		return sha256.New
	default:
		panic("unsupported hash algorithm")
	}
}

// String returns a human-readable description of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmSHA1:
		return "SHA-1"
	case AlgorithmSHA256:
		return "SHA-256"
	default:
		return "unknown"
	}
}
