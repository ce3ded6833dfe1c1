package envfile

import (
	"os"
	"path/filepath"
	"sort"
)

// ProductionAliases are the file names whose contents override or extend the
// canonical .env file for the production environment, in lookup order.
var ProductionAliases = []string{".env.production", ".env.prod", ".env.prd"}

// ProdPrefix is prepended to alias keys in force mode so they can never
// collide with base keys.
const ProdPrefix = "PROD_"

// MergeMode selects how a production alias file combines with the base .env.
type MergeMode int

const (
	// MergeLayer overwrites same-named base keys with the alias file's
	// values and appends keys unique to the alias. The default.
	MergeLayer MergeMode = iota

	// MergeForcePrefix adds every alias key under ProdPrefix and leaves the
	// base keys untouched.
	MergeForcePrefix
)

// Resolved is the key/value view of one logical environment, with insertion
// order preserved for display.
type Resolved struct {
	// Environment is the logical name ("production", "staging", ...).
	Environment string

	// SourceFile is the primary file this environment was resolved from.
	SourceFile string

	records []Record
	index   map[string]int

	// Warnings carries non-fatal parse problems from the underlying files.
	Warnings []ParseError
}

// Keys returns the keys in insertion order.
func (r *Resolved) Keys() []string {
	out := make([]string, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Key
	}
	return out
}

// Get returns the value for key and whether it exists.
func (r *Resolved) Get(key string) (string, bool) {
	pos, ok := r.index[key]
	if !ok {
		return "", false
	}
	return r.records[pos].Value, true
}

// Len returns the number of keys.
func (r *Resolved) Len() int {
	return len(r.records)
}

func newResolved(env string, f *File) *Resolved {
	r := &Resolved{
		Environment: env,
		SourceFile:  f.Name,
		index:       make(map[string]int),
		Warnings:    f.Errors(),
	}
	for _, rec := range f.Records() {
		r.set(rec.Key, rec.Value)
	}
	return r
}

func (r *Resolved) set(key, value string) {
	if pos, ok := r.index[key]; ok {
		r.records[pos].Value = value
		return
	}
	r.index[key] = len(r.records)
	r.records = append(r.records, Record{Key: key, Value: value})
}

// ResolveProduction builds the production environment from the canonical
// .env file in dir, combined with the first production alias file present
// according to mode. A missing .env with a present alias file is still
// resolved (the alias stands alone).
func ResolveProduction(dir string, mode MergeMode) (*Resolved, error) {
	base, err := parsePath(filepath.Join(dir, ".env"))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	var alias *File
	for _, name := range ProductionAliases {
		f, aerr := parsePath(filepath.Join(dir, name))
		if aerr != nil {
			if os.IsNotExist(aerr) {
				continue
			}
			return nil, aerr
		}
		alias = f
		break
	}

	if base == nil {
		base = Parse(filepath.Join(dir, ".env"), "")
	}

	r := newResolved("production", base)
	if alias == nil {
		return r, nil
	}

	r.Warnings = append(r.Warnings, alias.Errors()...)
	for _, rec := range alias.Records() {
		switch mode {
		case MergeForcePrefix:
			r.set(ProdPrefix+rec.Key, rec.Value)
		default:
			r.set(rec.Key, rec.Value)
		}
	}
	return r, nil
}

// ResolveOther parses a non-production environment file. No layering applies.
func ResolveOther(env, path string) (*Resolved, error) {
	f, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	return newResolved(env, f), nil
}

// parsePath reads and parses one env file with a scoped file handle.
func parsePath(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(filepath.Base(path), string(data)), nil
}

// SortedKeys returns the environment's keys sorted lexically, for stable
// audit tables.
func (r *Resolved) SortedKeys() []string {
	keys := r.Keys()
	sort.Strings(keys)
	return keys
}
