// Package backup manages point-in-time copies of env files. Identity is the
// content hash of the file bytes, never the timestamp: two backups are the
// same version iff their digests are equal, so cleanup can collapse duplicate
// copies regardless of when they were written.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/systmms/envsync/internal/contenthash"
)

// Suffix marks backup files on disk.
const Suffix = ".bak"

// timestampLayout is embedded in backup file names, UTC at second
// granularity.
const timestampLayout = "20060102T150405Z"

// Info describes one backup file discovered on disk. Instances are ephemeral
// and recomputed every run.
type Info struct {
	Path  string
	Hash  string
	Mtime time.Time
	Name  string

	// HashErr is set when the file could not be hashed. Such a backup has
	// no usable identity: it is always retained through dedup so the
	// problem surfaces instead of being silently cleaned away.
	HashErr error
}

// Dedupe groups backups by content hash and keeps only the newest of each
// group, returned sorted by mtime descending. Backups whose hash could not
// be computed are never collapsed; each one survives on its own.
func Dedupe(backups []Info) []Info {
	newest := make(map[string]Info)
	var kept []Info

	for _, b := range backups {
		if b.HashErr != nil {
			kept = append(kept, b)
			continue
		}
		if cur, ok := newest[b.Hash]; !ok || b.Mtime.After(cur.Mtime) {
			newest[b.Hash] = b
		}
	}
	for _, b := range newest {
		kept = append(kept, b)
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Mtime.After(kept[j].Mtime) })
	return kept
}

// ApplyRetention keeps the first count entries of an already newest-first
// list. A count of zero keeps none.
func ApplyRetention(deduped []Info, count int) []Info {
	if count <= 0 {
		return []Info{}
	}
	if count >= len(deduped) {
		return deduped
	}
	return deduped[:count]
}

// ShouldCreateBackup reports whether a new backup is warranted. It is false
// only when a most-recent backup exists and its hash equals the source's
// current hash; an unknown or absent previous hash always backs up.
func ShouldCreateBackup(sourceHash, mostRecentBackupHash string) bool {
	if mostRecentBackupHash == "" {
		return true
	}
	return sourceHash != mostRecentBackupHash
}

// Discover lists the backup files in dir, hashing each. A missing directory
// yields an empty list. Hash failures are recorded on the entry, not
// dropped.
func Discover(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory %s: %w", dir, err)
	}

	var backups []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Suffix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		fi, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat backup %s: %w", path, err)
		}

		info := Info{Path: path, Name: entry.Name(), Mtime: fi.ModTime()}
		if hash, herr := contenthash.HashFile(path); herr != nil {
			info.HashErr = herr
		} else {
			info.Hash = hash
		}
		backups = append(backups, info)
	}
	return backups, nil
}

// MostRecentHash returns the hash of the newest backup, or "" when there are
// no backups or the newest one could not be hashed.
func MostRecentHash(backups []Info) string {
	var newest *Info
	for i := range backups {
		if newest == nil || backups[i].Mtime.After(newest.Mtime) {
			newest = &backups[i]
		}
	}
	if newest == nil || newest.HashErr != nil {
		return ""
	}
	return newest.Hash
}

// Create writes a raw copy of sourcePath into dir with a timestamped name
// and returns the new backup's path. The directory is created on demand.
func Create(sourcePath, dir string, now time.Time) (string, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s for backup: %w", sourcePath, err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("%s.%s%s", filepath.Base(sourcePath), now.UTC().Format(timestampLayout), Suffix)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write backup %s: %w", path, err)
	}
	return path, nil
}

// Prune deletes every backup in all that is not in keep, returning the
// removed paths. A failure to remove one file does not stop the others.
func Prune(all, keep []Info) (removed []string, errs []error) {
	keepSet := make(map[string]bool, len(keep))
	for _, b := range keep {
		keepSet[b.Path] = true
	}

	for _, b := range all {
		if keepSet[b.Path] {
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove backup %s: %w", b.Path, err))
			continue
		}
		removed = append(removed, b.Path)
	}
	return removed, errs
}
