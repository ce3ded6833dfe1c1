// Package contenthash provides the content digest primitive shared by the
// sync manifest and backup deduplication. Two values or files are "the same
// version" iff their digests are equal; timestamps never enter into it.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HashError indicates that a digest could not be computed, typically because
// the underlying file was unreadable. Callers must treat the affected item
// as "needs action" rather than skipping it silently.
type HashError struct {
	// Path is the file that could not be hashed. Empty for in-memory input.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e HashError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to compute content hash: %v", e.Err)
	}
	return fmt.Sprintf("failed to compute content hash of %s: %v", e.Path, e.Err)
}

func (e HashError) Unwrap() error {
	return e.Err
}

// HashBytes returns the hex-encoded SHA-256 digest of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashString returns the hex-encoded SHA-256 digest of s.
func HashString(s string) string {
	return HashBytes([]byte(s))
}

// HashFile returns the hex-encoded SHA-256 digest over the full bytes of the
// file at path. The file handle is released on all paths.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", HashError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", HashError{Path: path, Err: err}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
