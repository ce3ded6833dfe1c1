package remote

import (
	"fmt"
	"time"
)

// ListError indicates the remote listing call failed. No snapshot is
// available and the run cannot plan against remote state.
type ListError struct {
	Repo string
	Err  error
}

// Error implements the error interface.
func (e ListError) Error() string {
	return fmt.Sprintf("failed to list secrets for %s: %v", e.Repo, e.Err)
}

func (e ListError) Unwrap() error {
	return e.Err
}

// WriteError indicates a set or delete failed for one key. Only metadata is
// carried: the key name and value length, never the value.
type WriteError struct {
	Repo        string
	Key         string
	Op          string // "set" or "delete"
	ValueLength int
	Err         error
}

// Error implements the error interface.
func (e WriteError) Error() string {
	if e.Op == "set" {
		return fmt.Sprintf("failed to set secret %s (%d bytes) in %s: %v", e.Key, e.ValueLength, e.Repo, e.Err)
	}
	return fmt.Sprintf("failed to %s secret %s in %s: %v", e.Op, e.Key, e.Repo, e.Err)
}

func (e WriteError) Unwrap() error {
	return e.Err
}

// TimeoutError indicates the CLI subprocess exceeded its deadline and was
// killed. Nothing is known about whether the remote applied the request.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

// Error implements the error interface.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("remote %s timed out after %s", e.Op, e.Timeout)
}
