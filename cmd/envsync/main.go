package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
	"github.com/systmms/envsync/cmd/envsync/commands"
	"github.com/systmms/envsync/internal/config"
	"github.com/systmms/envsync/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Wipe protected buffers and the scrub cache on every exit path,
	// success or failure, so no secret material outlives the process.
	defer memguard.Purge()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		memguard.Purge()
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile     string
		noColor        bool
		debug          bool
		nonInteractive bool
	)

	cfg := &config.Config{}
	defer func() {
		if cfg.Logger != nil {
			cfg.Logger.Scrubber().Cache().Clear()
		}
	}()

	rootCmd := &cobra.Command{
		Use:   "envsync",
		Short: "Sync .env files to GitHub Actions repository secrets",
		Long: `envsync reconciles local .env files against a repository's GitHub
Actions secrets via the gh CLI, tracking synced state in a local manifest
so it only writes what actually changed.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := logging.New(debug, noColor, nil)

			cfg.Path = configFile
			cfg.Logger = logger
			cfg.NonInteractive = nonInteractive
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultFileName, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Non-interactive mode")

	rootCmd.AddCommand(
		commands.NewSyncCommand(cfg),
		commands.NewDriftCommand(cfg),
		commands.NewBackupCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}
