package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/envsync/internal/config"
	"github.com/systmms/envsync/internal/logging"
	"github.com/systmms/envsync/internal/reconcile"
)

// setupWorkspace writes an envsync.yaml plus env files into a temp dir and
// returns a config pointing at it.
func setupWorkspace(t *testing.T, configYAML string, files map[string]string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "envsync.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0o600))

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return &config.Config{
		Path:   configPath,
		Logger: logging.New(false, true, nil),
	}
}

// captureStderr runs fn while collecting everything written to stderr.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w

	fn()

	require.NoError(t, w.Close())
	os.Stderr = old

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

// captureStdout runs fn while collecting everything written to stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	require.NoError(t, w.Close())
	os.Stdout = old

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func runCommand(cmd *cobra.Command, args []string) error {
	cmd.SetArgs(args)
	return cmd.Execute()
}

// TestDriftCommandReportsWarnings verifies drift output names out-of-step
// keys without showing values
func TestDriftCommandReportsWarnings(t *testing.T) {
	cfg := setupWorkspace(t, `
version: 1
repo: acme/api
environments:
  staging: .env.staging
`, map[string]string{
		".env":         "API_KEY=prod-secret\nDB_URL=u\n",
		".env.staging": "DB_URL=u\nSTAGING_ONLY=x\n",
	})

	var err error
	output := captureStderr(t, func() {
		err = runCommand(NewDriftCommand(cfg), nil)
	})

	require.NoError(t, err)
	assert.Contains(t, output, "staging is missing key API_KEY")
	assert.Contains(t, output, "orphaned key STAGING_ONLY")
	assert.NotContains(t, output, "prod-secret")
}

// TestDriftCommandStrictFailsOnDrift verifies --strict turns warnings into a
// non-zero exit
func TestDriftCommandStrictFailsOnDrift(t *testing.T) {
	cfg := setupWorkspace(t, `
version: 1
repo: acme/api
environments:
  staging: .env.staging
`, map[string]string{
		".env":         "API_KEY=v\n",
		".env.staging": "",
	})

	var err error
	captureStderr(t, func() {
		err = runCommand(NewDriftCommand(cfg), []string{"--strict"})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drift warning")
}

// TestBackupCreateSkipsUnchangedSource verifies a second create against the
// same content does not write a duplicate backup
func TestBackupCreateSkipsUnchangedSource(t *testing.T) {
	cfg := setupWorkspace(t, "version: 1\nrepo: acme/api\n", map[string]string{
		".env": "API_KEY=v1\n",
	})

	captureStderr(t, func() {
		require.NoError(t, runCommand(NewBackupCommand(cfg), []string{"create"}))
	})

	entries, err := os.ReadDir(cfg.BackupDir())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	output := captureStderr(t, func() {
		require.NoError(t, runCommand(NewBackupCommand(cfg), []string{"create"}))
	})
	assert.Contains(t, output, "skipping")

	entries, err = os.ReadDir(cfg.BackupDir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// TestBackupCleanupAppliesRetention verifies cleanup collapses duplicates
// and honors the configured retention count
func TestBackupCleanupAppliesRetention(t *testing.T) {
	cfg := setupWorkspace(t, `
version: 1
repo: acme/api
backup:
  dir: backups
  retention: 1
`, map[string]string{
		"backups/.env.20260825T100000Z.bak": "version-one\n",
		"backups/.env.20260825T110000Z.bak": "version-one\n",
		"backups/.env.20260825T120000Z.bak": "version-two\n",
	})

	captureStderr(t, func() {
		require.NoError(t, runCommand(NewBackupCommand(cfg), []string{"cleanup"}))
	})

	entries, err := os.ReadDir(cfg.BackupDir())
	require.NoError(t, err)

	var remaining []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".bak" {
			remaining = append(remaining, e.Name())
		}
	}
	assert.Len(t, remaining, 1, "retention 1 keeps one unique version")
}

// TestBackupCleanupDryRunRemovesNothing verifies --dry-run only reports
func TestBackupCleanupDryRunRemovesNothing(t *testing.T) {
	cfg := setupWorkspace(t, `
version: 1
repo: acme/api
backup:
  dir: backups
  retention: 0
`, map[string]string{
		"backups/.env.20260825T100000Z.bak": "a\n",
		"backups/.env.20260825T110000Z.bak": "b\n",
	})

	captureStderr(t, func() {
		require.NoError(t, runCommand(NewBackupCommand(cfg), []string{"cleanup", "--dry-run"}))
	})

	entries, err := os.ReadDir(cfg.BackupDir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// TestOutputActionsTableScrubsRendering verifies plan rendering passes
// through the scrubber and keeps key names visible
func TestOutputActionsTableScrubsRendering(t *testing.T) {
	cfg := setupWorkspace(t, "version: 1\nrepo: acme/api\n", nil)
	require.NoError(t, loadConfig(cfg))

	actions := []reconcile.Action{
		{Key: "API_KEY", Kind: reconcile.Create, Reason: "missing remotely"},
		{Key: "DEBUG", Kind: reconcile.Noop, Reason: "already in sync"},
	}

	output := captureStdout(t, func() {
		outputActionsTable(cfg, actions)
	})

	assert.Contains(t, output, "KEY")
	assert.Contains(t, output, "API_KEY")
	assert.Contains(t, output, "CREATE")
	assert.Contains(t, output, "missing remotely")
}

// TestSyncCommandFlagDefaults verifies the sync command registers its flags
// with safe defaults: no apply, no deletes
func TestSyncCommandFlagDefaults(t *testing.T) {
	cfg := setupWorkspace(t, "version: 1\nrepo: acme/api\n", nil)
	cmd := NewSyncCommand(cfg)

	apply, err := cmd.Flags().GetBool("apply")
	require.NoError(t, err)
	assert.False(t, apply)

	del, err := cmd.Flags().GetBool("delete")
	require.NoError(t, err)
	assert.False(t, del)

	env, err := cmd.Flags().GetString("env")
	require.NoError(t, err)
	assert.Equal(t, "production", env)
}
