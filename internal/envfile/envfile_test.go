package envfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/envsync/internal/envfile"
)

// TestParseBasics verifies comment and blank-line handling, key trimming,
// and verbatim values
func TestParseBasics(t *testing.T) {
	t.Parallel()

	f := envfile.Parse(".env", "# comment\n\nAPI_KEY=abc\n  DB_URL = postgres://h/db?a=1&b=2\nexport PORT=8080\n")

	require.Equal(t, 3, f.Len())

	recs := f.Records()
	assert.Equal(t, "API_KEY", recs[0].Key)
	assert.Equal(t, "abc", recs[0].Value)

	// key trimmed, value verbatim including embedded '='
	assert.Equal(t, "DB_URL", recs[1].Key)
	assert.Equal(t, " postgres://h/db?a=1&b=2", recs[1].Value)

	assert.Equal(t, "PORT", recs[2].Key)
	assert.Equal(t, "8080", recs[2].Value)
}

// TestParseDuplicateLastWins verifies the last occurrence wins and takes the
// later position
func TestParseDuplicateLastWins(t *testing.T) {
	t.Parallel()

	f := envfile.Parse(".env", "A=1\nB=2\nA=3\n")

	recs := f.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "B", recs[0].Key)
	assert.Equal(t, "A", recs[1].Key)
	assert.Equal(t, "3", recs[1].Value)
}

// TestParseMalformedLinesSkipped verifies malformed lines become warnings,
// never failures, and carry no line content
func TestParseMalformedLinesSkipped(t *testing.T) {
	t.Parallel()

	f := envfile.Parse(".env", "GOOD=1\nthis line has no separator\n=value-without-key\n")

	assert.Equal(t, 1, f.Len())

	errs := f.Errors()
	require.Len(t, errs, 2)
	assert.Equal(t, 2, errs[0].Line)
	assert.NotContains(t, errs[0].Error(), "separator value")
	assert.Contains(t, errs[1].Error(), "empty key")
	assert.NotContains(t, errs[1].Error(), "value-without-key")
}

// TestResolveProductionLayering verifies alias keys overwrite same-named
// base keys and unique alias keys are appended
func TestResolveProductionLayering(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SHARED=base\nBASE_ONLY=1\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.production"), []byte("SHARED=prod\nPROD_ONLY=2\n"), 0o600))

	r, err := envfile.ResolveProduction(dir, envfile.MergeLayer)
	require.NoError(t, err)

	v, ok := r.Get("SHARED")
	require.True(t, ok)
	assert.Equal(t, "prod", v)

	v, ok = r.Get("BASE_ONLY")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	v, ok = r.Get("PROD_ONLY")
	require.True(t, ok)
	assert.Equal(t, "2", v)
}

// TestResolveProductionForcePrefix verifies force mode prefixes alias keys
// and never collides with the base
func TestResolveProductionForcePrefix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SHARED=base\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.prod"), []byte("SHARED=prod\n"), 0o600))

	r, err := envfile.ResolveProduction(dir, envfile.MergeForcePrefix)
	require.NoError(t, err)

	v, ok := r.Get("SHARED")
	require.True(t, ok)
	assert.Equal(t, "base", v, "base value untouched in force mode")

	v, ok = r.Get("PROD_SHARED")
	require.True(t, ok)
	assert.Equal(t, "prod", v)
}

// TestResolveProductionWithoutAlias verifies a bare .env resolves alone
func TestResolveProductionWithoutAlias(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ONLY=here\n"), 0o600))

	r, err := envfile.ResolveProduction(dir, envfile.MergeLayer)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, "production", r.Environment)
}

// TestResolveOtherIsStraightParse verifies non-production files get no
// layering
func TestResolveOtherIsStraightParse(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".env.staging")
	require.NoError(t, os.WriteFile(path, []byte("A=1\n"), 0o600))

	r, err := envfile.ResolveOther("staging", path)
	require.NoError(t, err)
	assert.Equal(t, "staging", r.Environment)
	assert.Equal(t, []string{"A"}, r.Keys())
}
