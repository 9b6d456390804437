package hash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// File computes the content hash of the regular file at path using
// algorithm, returning it as a lowercase hex string. Symlinks must never be
// passed here (spec §4.1, "Symlinks are never hashed"); callers are
// responsible for dispatching on entry variant before calling File.
func File(path string, algorithm Algorithm) (string, error) {
	handle, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("unable to open file for hashing: %w", err)
	}
	defer handle.Close()

	return Reader(handle, algorithm)
}

// Reader computes the content hash of r's remaining bytes using algorithm,
// returning it as a lowercase hex string. An empty stream has a well-defined
// hash (spec §8, "Empty files have a well-defined hash").
func Reader(r io.Reader, algorithm Algorithm) (string, error) {
	digest := algorithm.Factory()()
	if _, err := io.Copy(digest, r); err != nil {
		return "", fmt.Errorf("unable to read content for hashing: %w", err)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// Bytes computes the content hash of data using algorithm, returning it as a
// lowercase hex string. Used for hashing canonical serializations
// (entries_hash, snapshot_hash) rather than file content.
func Bytes(data []byte, algorithm Algorithm) string {
	digest := algorithm.Factory()()
	digest.Write(data)
	return hex.EncodeToString(digest.Sum(nil))
}
