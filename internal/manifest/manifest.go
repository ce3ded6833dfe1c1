// Package manifest persists the last known synced state per secret key: the
// content hash of the local value and the remote timestamp observed at the
// last successful apply. The reconciliation engine compares against it to
// detect local edits and out-of-band remote drift.
//
// The state file is loaded wholesale at startup and replaced wholesale at
// save time with a write-to-temp-then-rename, so a crash mid-run can never
// leave a half-written manifest.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// Entry records the synced state for one (environment, key) pair. Entries
// are created only after a successful apply, never speculatively.
type Entry struct {
	Environment     string  `json:"environment"`
	Key             string  `json:"key"`
	ContentHash     string  `json:"content_hash"`
	RemoteUpdatedAt *string `json:"remote_updated_at"`
	SourceFile      string  `json:"source_file"`
}

// CorruptionError indicates the state file was unreadable or structurally
// invalid. Recovery is to proceed with an empty manifest, which forces
// conservative first-sync behavior downstream; the error itself is reported
// as a warning.
type CorruptionError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e CorruptionError) Error() string {
	return fmt.Sprintf("manifest %s is corrupt, treating as empty: %v", e.Path, e.Err)
}

func (e CorruptionError) Unwrap() error {
	return e.Err
}

// entrySchema gates the on-disk document before it is accepted. A document
// that parses as JSON but has the wrong shape is corruption, not data.
const entrySchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["environment", "key", "content_hash", "source_file"],
    "properties": {
      "environment":       {"type": "string", "minLength": 1},
      "key":               {"type": "string", "minLength": 1},
      "content_hash":      {"type": "string", "minLength": 1},
      "remote_updated_at": {"type": ["string", "null"]},
      "source_file":       {"type": "string"}
    },
    "additionalProperties": false
  }
}`

// Store owns all manifest entries for one run. Single-writer, single-reader
// within a process; no locking is needed.
type Store struct {
	path    string
	entries map[string]Entry
}

func entryKey(environment, key string) string {
	return environment + "\x00" + key
}

// Load reads the state file at path. The returned Store is always usable:
// on a missing file it is empty with a nil error, and on a corrupt file it
// is empty with a CorruptionError the caller should surface as a warning.
func Load(path string) (*Store, error) {
	s := &Store{
		path:    path,
		entries: make(map[string]Entry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, CorruptionError{Path: path, Err: err}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(entrySchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return s, CorruptionError{Path: path, Err: err}
	}
	if !result.Valid() {
		return s, CorruptionError{Path: path, Err: fmt.Errorf("schema violation: %s", result.Errors()[0])}
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return s, CorruptionError{Path: path, Err: err}
	}

	for _, e := range entries {
		s.entries[entryKey(e.Environment, e.Key)] = e
	}
	return s, nil
}

// Get returns the entry for (environment, key) and whether it exists.
func (s *Store) Get(environment, key string) (Entry, bool) {
	e, ok := s.entries[entryKey(environment, key)]
	return e, ok
}

// Put inserts or replaces the entry for its (environment, key) pair.
func (s *Store) Put(e Entry) {
	s.entries[entryKey(e.Environment, e.Key)] = e
}

// Delete removes the entry for (environment, key) if present.
func (s *Store) Delete(environment, key string) {
	delete(s.entries, entryKey(environment, key))
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Entries returns all entries sorted by environment then key.
func (s *Store) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Environment != out[j].Environment {
			return out[i].Environment < out[j].Environment
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// EntriesFor returns the entries of one environment, sorted by key.
func (s *Store) EntriesFor(environment string) []Entry {
	var out []Entry
	for _, e := range s.entries {
		if e.Environment == environment {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Save replaces the state file atomically: marshal, write to a temp file in
// the same directory, fsync, rename over the target.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.Entries(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp manifest: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp manifest: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to set manifest permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace manifest: %w", err)
	}
	return nil
}
