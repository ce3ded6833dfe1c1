package commands

import (
	"github.com/systmms/envsync/internal/config"
	"github.com/systmms/envsync/internal/envfile"
	"github.com/systmms/envsync/internal/scrub"
)

// loadConfig loads envsync.yaml and rebuilds the logger's scrubber with the
// config's whitelist and secret-pattern extensions.
func loadConfig(cfg *config.Config) error {
	if err := cfg.Load(); err != nil {
		return err
	}

	scrubber := scrub.New(scrub.Options{
		Whitelist:      cfg.Definition.Scrub.Whitelist,
		SecretPatterns: cfg.Definition.Scrub.SecretPatterns,
	})
	cfg.Logger = cfg.Logger.WithScrubber(scrubber)
	return nil
}

// resolveEnvironment resolves the named environment's key/value view.
// "production" layers the canonical .env with its alias file; anything else
// is a straight parse of the configured file.
func resolveEnvironment(cfg *config.Config, name string) (*envfile.Resolved, error) {
	if name == "production" {
		mode := envfile.MergeLayer
		if cfg.Definition.Sync.ForcePrefix {
			mode = envfile.MergeForcePrefix
		}
		return envfile.ResolveProduction(cfg.EnvDir(), mode)
	}

	path, err := cfg.EnvironmentFile(name)
	if err != nil {
		return nil, err
	}
	return envfile.ResolveOther(name, path)
}

// reportParseWarnings surfaces malformed env lines. Parsing skips them; they
// are never fatal.
func reportParseWarnings(cfg *config.Config, resolved *envfile.Resolved) {
	for _, w := range resolved.Warnings {
		cfg.Logger.Warn("%v", w)
	}
}
