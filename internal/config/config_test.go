package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/envsync/internal/config"
	synerrors "github.com/systmms/envsync/internal/errors"
)

func loadConfig(t *testing.T, yaml string) (*config.Config, error) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "envsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg := &config.Config{Path: path}
	return cfg, cfg.Load()
}

// TestLoadFullConfig verifies a complete envsync.yaml parses with every
// section populated
func TestLoadFullConfig(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(t, `
version: 1
repo: acme/api
env_dir: /srv/app
environments:
  staging: .env.staging
  ci: ci/.env.ci
backup:
  dir: /var/backups/envsync
  retention: 5
remote:
  timeout_ms: 10000
sync:
  trust_manifest: true
  force_prefix: true
scrub:
  whitelist:
    - FEATURE_*
  secret_patterns:
    - "*_DSN"
`)
	require.NoError(t, err)

	assert.Equal(t, "acme/api", cfg.Definition.Repo)
	assert.Equal(t, "/srv/app", cfg.EnvDir())
	assert.Equal(t, "/var/backups/envsync", cfg.BackupDir())
	assert.Equal(t, 5, cfg.Retention())
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeout())
	assert.True(t, cfg.Definition.Sync.TrustManifest)
	assert.Equal(t, []string{"FEATURE_*"}, cfg.Definition.Scrub.Whitelist)
	assert.Equal(t, []string{"ci", "staging"}, cfg.EnvironmentNames())

	staging, err := cfg.EnvironmentFile("staging")
	require.NoError(t, err)
	assert.Equal(t, "/srv/app/.env.staging", staging)
}

// TestLoadDefaults verifies a minimal config fills in retention, timeout,
// and path defaults
func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(t, "version: 1\nrepo: acme/api\n")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Retention())
	assert.Equal(t, 30*time.Second, cfg.RemoteTimeout())
	assert.Equal(t, filepath.Dir(cfg.Path), cfg.EnvDir())
	assert.Equal(t, filepath.Join(cfg.EnvDir(), ".envsync/manifest.json"), cfg.ManifestPath())
	assert.Equal(t, filepath.Join(cfg.EnvDir(), ".envsync/backups"), cfg.BackupDir())
	assert.False(t, cfg.Definition.Sync.TrustManifest)
}

// TestExplicitZeroRetentionIsHonored verifies retention 0 means keep none,
// not the default
func TestExplicitZeroRetentionIsHonored(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(t, "version: 1\nrepo: acme/api\nbackup:\n  retention: 0\n")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Retention())
}

// TestLoadErrors verifies each rejection carries a ConfigError with a
// suggestion
func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{name: "bad version", yaml: "version: 7\nrepo: acme/api\n"},
		{name: "missing repo", yaml: "version: 1\n"},
		{name: "malformed repo", yaml: "version: 1\nrepo: just-a-name\n"},
		{name: "invalid yaml", yaml: "version: [unclosed\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := loadConfig(t, tt.yaml)
			require.Error(t, err)

			var cfgErr synerrors.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.NotEmpty(t, cfgErr.Suggestion)
		})
	}
}

// TestMissingFileError verifies a missing config file points the user at
// creating one
func TestMissingFileError(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Path: filepath.Join(t.TempDir(), "envsync.yaml")}
	err := cfg.Load()

	var cfgErr synerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Suggestion, "envsync.yaml")
}

// TestUnknownEnvironmentListsAvailable verifies the error for a typo'd
// environment name offers the configured ones
func TestUnknownEnvironmentListsAvailable(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(t, `
version: 1
repo: acme/api
environments:
  staging: .env.staging
`)
	require.NoError(t, err)

	_, err = cfg.EnvironmentFile("stagign")
	var cfgErr synerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Suggestion, "staging")
}
