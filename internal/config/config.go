// Package config loads and validates the envsync.yaml file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	synerrors "github.com/systmms/envsync/internal/errors"
	"github.com/systmms/envsync/internal/logging"
)

// DefaultFileName is looked up in the working directory when --config is not
// given.
const DefaultFileName = "envsync.yaml"

const (
	defaultRetention = 3
	defaultTimeoutMs = 30000
	defaultBackupDir = ".envsync/backups"
	defaultManifest  = ".envsync/manifest.json"
)

// Config holds the runtime configuration
type Config struct {
	Path           string
	Logger         *logging.Logger
	NonInteractive bool
	Definition     *Definition
}

// Definition represents the envsync.yaml structure
type Definition struct {
	Version int    `yaml:"version"`
	Repo    string `yaml:"repo"`
	EnvDir  string `yaml:"env_dir,omitempty"`

	// Environments maps non-production environment names to their env
	// file paths, relative to EnvDir. Production is implicit: the .env
	// file in EnvDir plus any production alias file.
	Environments map[string]string `yaml:"environments,omitempty"`

	Backup BackupConfig `yaml:"backup,omitempty"`
	Remote RemoteConfig `yaml:"remote,omitempty"`
	Sync   SyncConfig   `yaml:"sync,omitempty"`
	Scrub  ScrubConfig  `yaml:"scrub,omitempty"`
}

// BackupConfig controls backup creation and cleanup.
type BackupConfig struct {
	Dir string `yaml:"dir,omitempty"`

	// Retention is how many unique backup versions cleanup keeps. Nil
	// means the default; an explicit 0 keeps none.
	Retention *int `yaml:"retention,omitempty"`
}

// RemoteConfig controls the gh CLI invocations.
type RemoteConfig struct {
	TimeoutMs int `yaml:"timeout_ms,omitempty"`
}

// SyncConfig controls reconciliation behavior.
type SyncConfig struct {
	// TrustManifest treats hash-converged keys as in sync even when
	// timestamp data is missing. Off by default.
	TrustManifest bool `yaml:"trust_manifest,omitempty"`

	// Manifest is the state file path. Defaults under env_dir.
	Manifest string `yaml:"manifest,omitempty"`

	// ForcePrefix adds production-alias keys under a PROD_ prefix instead
	// of layering them over the base .env.
	ForcePrefix bool `yaml:"force_prefix,omitempty"`
}

// ScrubConfig extends the redaction engine's built-in rules.
type ScrubConfig struct {
	Whitelist      []string `yaml:"whitelist,omitempty"`
	SecretPatterns []string `yaml:"secret_patterns,omitempty"`
}

// Load reads and parses the envsync.yaml file
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return synerrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Create an envsync.yaml with at least 'version: 1' and 'repo: owner/name'",
			}
		}
		return synerrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return synerrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if def.Version != 1 {
		return synerrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 1' at the top of your envsync.yaml file",
		}
	}

	if strings.Count(def.Repo, "/") != 1 || strings.HasPrefix(def.Repo, "/") || strings.HasSuffix(def.Repo, "/") {
		return synerrors.ConfigError{
			Field:      "repo",
			Value:      def.Repo,
			Message:    "repo must be in owner/name form",
			Suggestion: "Set 'repo: your-org/your-repo' in envsync.yaml",
		}
	}

	c.Definition = &def
	return nil
}

// EnvDir returns the directory holding env files, defaulting to the
// directory containing the config file.
func (c *Config) EnvDir() string {
	if c.Definition.EnvDir != "" {
		return c.Definition.EnvDir
	}
	return filepath.Dir(c.Path)
}

// ManifestPath returns the state file path, defaulting under the env dir.
// Relative configured paths resolve against the env dir.
func (c *Config) ManifestPath() string {
	return c.resolvePath(c.Definition.Sync.Manifest, defaultManifest)
}

// BackupDir returns the backup directory, defaulting under the env dir.
// Relative configured paths resolve against the env dir.
func (c *Config) BackupDir() string {
	return c.resolvePath(c.Definition.Backup.Dir, defaultBackupDir)
}

func (c *Config) resolvePath(configured, fallback string) string {
	if configured == "" {
		configured = fallback
	}
	if filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(c.EnvDir(), configured)
}

// Retention returns the backup retention count. An explicit 0 is honored.
func (c *Config) Retention() int {
	if c.Definition.Backup.Retention == nil {
		return defaultRetention
	}
	if *c.Definition.Backup.Retention < 0 {
		return 0
	}
	return *c.Definition.Backup.Retention
}

// RemoteTimeout returns the per-invocation timeout for the gh CLI.
func (c *Config) RemoteTimeout() time.Duration {
	ms := c.Definition.Remote.TimeoutMs
	if ms <= 0 {
		ms = defaultTimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}

// EnvironmentFile resolves the env file path for a configured non-production
// environment.
func (c *Config) EnvironmentFile(name string) (string, error) {
	rel, ok := c.Definition.Environments[name]
	if !ok {
		var available []string
		for envName := range c.Definition.Environments {
			available = append(available, envName)
		}
		sort.Strings(available)

		suggestion := "Add the environment under 'environments:' in envsync.yaml"
		if len(available) > 0 {
			suggestion = fmt.Sprintf("Available environments: %s", strings.Join(available, ", "))
		}
		return "", synerrors.ConfigError{
			Field:      "environment",
			Value:      name,
			Message:    "environment not found",
			Suggestion: suggestion,
		}
	}
	if filepath.IsAbs(rel) {
		return rel, nil
	}
	return filepath.Join(c.EnvDir(), rel), nil
}

// EnvironmentNames returns the configured non-production environments in
// sorted order.
func (c *Config) EnvironmentNames() []string {
	var names []string
	for name := range c.Definition.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
