package contenthash_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/envsync/internal/contenthash"
)

// TestHashStringMatchesHashBytes verifies the two in-memory entry points agree
func TestHashStringMatchesHashBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, contenthash.HashBytes([]byte("API_KEY=v1\n")), contenthash.HashString("API_KEY=v1\n"))
	assert.NotEqual(t, contenthash.HashString("v1"), contenthash.HashString("v2"))
}

// TestHashFileMatchesBytes verifies file hashing digests the full file bytes
func TestHashFileMatchesBytes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := []byte("API_KEY=secret123\nDEBUG=true\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	got, err := contenthash.HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, contenthash.HashBytes(content), got)
}

// TestHashFileMissingReturnsHashError verifies unreadable files surface a typed error
func TestHashFileMissingReturnsHashError(t *testing.T) {
	t.Parallel()

	_, err := contenthash.HashFile(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)

	var hashErr contenthash.HashError
	require.True(t, errors.As(err, &hashErr))
	assert.Contains(t, hashErr.Path, "missing.env")
	assert.Contains(t, err.Error(), "missing.env")
}
