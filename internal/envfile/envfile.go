// Package envfile parses .env-style files into ordered key/value records and
// resolves them into per-environment maps, with production layering rules.
package envfile

import (
	"fmt"
	"strings"
)

// ParseError describes a malformed line. Parsing recovers by skipping the
// line; the error is collected for the caller to report as a warning and is
// never fatal. Only metadata is carried, never line content, so the error
// text is safe to log.
type ParseError struct {
	// File is the source file, when known.
	File string

	// Line is the 1-based line number of the malformed line.
	Line int

	// Reason describes what was wrong, without quoting the line.
	Reason string
}

// Error implements the error interface.
func (e ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
}

// Record is one key/value pair parsed from a file.
type Record struct {
	Key   string
	Value string
}

// File holds the ordered records of one parsed env file. Keys are unique;
// on duplicates the last occurrence wins and takes the later position, which
// keeps re-serialization stable. Immutable after Parse.
type File struct {
	// Name is the source file name, used in warnings.
	Name string

	records []Record
	index   map[string]int
	errs    []ParseError
}

// Parse splits text into records. Blank lines and '#' comments are ignored.
// Each remaining line splits on the first '='; the key is trimmed of
// whitespace, the value kept verbatim (embedded '=' and quotes included).
// Lines with no '=' or an empty key are skipped and recorded as ParseErrors.
func Parse(name, text string) *File {
	f := &File{
		Name:  name,
		index: make(map[string]int),
	}

	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		eq := strings.Index(line, "=")
		if eq < 0 {
			f.errs = append(f.errs, ParseError{File: name, Line: i + 1, Reason: "no '=' separator"})
			continue
		}

		key := strings.TrimSpace(line[:eq])
		key = strings.TrimPrefix(key, "export ")
		key = strings.TrimSpace(key)
		if key == "" {
			f.errs = append(f.errs, ParseError{File: name, Line: i + 1, Reason: "empty key"})
			continue
		}

		value := line[eq+1:]
		f.set(key, value)
	}

	return f
}

// set inserts or replaces a key. A replaced key moves to the later position.
func (f *File) set(key, value string) {
	if pos, dup := f.index[key]; dup {
		f.records = append(f.records[:pos], f.records[pos+1:]...)
		for k, p := range f.index {
			if p > pos {
				f.index[k] = p - 1
			}
		}
	}
	f.index[key] = len(f.records)
	f.records = append(f.records, Record{Key: key, Value: value})
}

// Records returns the ordered records. The returned slice is a copy.
func (f *File) Records() []Record {
	out := make([]Record, len(f.records))
	copy(out, f.records)
	return out
}

// Get returns the value for key and whether it exists.
func (f *File) Get(key string) (string, bool) {
	pos, ok := f.index[key]
	if !ok {
		return "", false
	}
	return f.records[pos].Value, true
}

// Len returns the number of records.
func (f *File) Len() int {
	return len(f.records)
}

// Errors returns the ParseErrors collected during parsing.
func (f *File) Errors() []ParseError {
	return f.errs
}
