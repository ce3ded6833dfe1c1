package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/envsync/internal/config"
	"github.com/systmms/envsync/internal/reconcile"
)

// NewDriftCommand creates the drift command: a read-only comparison of every
// configured environment against production.
func NewDriftCommand(cfg *config.Config) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Report keys out of step between production and other environments",
		Long: `Drift compares each configured environment against production and
reports keys production has that the environment lacks, and keys the
environment has that production lacks. Values are never compared or shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cfg); err != nil {
				return err
			}

			production, err := resolveEnvironment(cfg, "production")
			if err != nil {
				return fmt.Errorf("failed to resolve production: %w", err)
			}
			reportParseWarnings(cfg, production)

			total := 0
			for _, name := range cfg.EnvironmentNames() {
				other, err := resolveEnvironment(cfg, name)
				if err != nil {
					cfg.Logger.Error("Failed to resolve environment %s: %v", name, err)
					continue
				}
				reportParseWarnings(cfg, other)

				for _, w := range reconcile.CompareEnvironments(production, other) {
					cfg.Logger.Warn("%s", w.Message())
					total++
				}
			}

			if total == 0 {
				cfg.Logger.Info("No drift detected across %d environment(s)", len(cfg.EnvironmentNames()))
				return nil
			}
			if strict {
				return fmt.Errorf("%d drift warning(s) found", total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any drift is found")

	return cmd
}
