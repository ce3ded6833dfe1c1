package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/envsync/internal/config"
	"github.com/systmms/envsync/internal/manifest"
	"github.com/systmms/envsync/internal/reconcile"
	"github.com/systmms/envsync/internal/remote"
)

// NewSyncCommand creates the sync command: plan what the remote store is
// missing and optionally apply it.
func NewSyncCommand(cfg *config.Config) *cobra.Command {
	var (
		envName       string
		apply         bool
		deleteOrphans bool
		outputJSON    bool
		trustManifest bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile local env files against repository secrets",
		Long: `Sync compares the resolved local environment, the remote secret
listing, and the local manifest, then plans a CREATE/UPDATE/DELETE/NOOP
action per key. Without --apply only the plan is shown. Deletes are
reported but never executed unless --delete is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cfg); err != nil {
				return err
			}

			local, err := resolveEnvironment(cfg, envName)
			if err != nil {
				return fmt.Errorf("failed to resolve environment %s: %w", envName, err)
			}
			reportParseWarnings(cfg, local)

			state, err := manifest.Load(cfg.ManifestPath())
			if err != nil {
				cfg.Logger.Warn("%v", err)
			}

			store := remote.NewGitHubStore(cfg.Definition.Repo, cfg.RemoteTimeout(), cfg.Logger)
			ctx := context.Background()
			if err := store.Validate(ctx); err != nil {
				return err
			}

			snapshot, err := store.List(ctx)
			if err != nil {
				return err
			}

			trust := cfg.Definition.Sync.TrustManifest || trustManifest
			actions := reconcile.Plan(local, snapshot, state, reconcile.Options{TrustManifest: trust})

			if outputJSON {
				if err := outputActionsJSON(actions); err != nil {
					return err
				}
			} else {
				outputActionsTable(cfg, actions)
			}

			pending := reconcile.Pending(actions, deleteOrphans)
			if !apply {
				if pending > 0 {
					cfg.Logger.Info("%d change(s) pending. Re-run with --apply to execute", pending)
				} else {
					cfg.Logger.Info("Everything in sync, nothing to do")
				}
				return nil
			}

			applier := reconcile.NewApplier(store, state, cfg.Logger)
			result := applier.Apply(ctx, local, snapshot, actions, reconcile.ApplyOptions{DeleteOrphans: deleteOrphans})

			if err := state.Save(); err != nil {
				return err
			}

			cfg.Logger.Info("Applied %d change(s), skipped %d", len(result.Applied), len(result.Skipped))
			if len(result.Failed) > 0 {
				for _, f := range result.Failed {
					cfg.Logger.Error("%s %s: %v", f.Action.Kind, f.Action.Key, f.Err)
				}
				return fmt.Errorf("%d change(s) failed to apply", len(result.Failed))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&envName, "env", "production", "Environment to sync")
	cmd.Flags().BoolVar(&apply, "apply", false, "Execute the planned changes")
	cmd.Flags().BoolVar(&deleteOrphans, "delete", false, "Also delete remote secrets removed locally")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output the plan in JSON format")
	cmd.Flags().BoolVar(&trustManifest, "trust-manifest", false, "Treat hash-converged keys as in sync even without timestamp data")

	return cmd
}

// outputActionsTable renders the plan as a table on stdout. Only key names,
// kinds, and reasons appear; the whole rendering still passes through the
// scrubber.
func outputActionsTable(cfg *config.Config, actions []reconcile.Action) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tACTION\tREASON")
	for _, a := range actions {
		line := fmt.Sprintf("%s\t%s\t%s", a.Key, a.Kind, a.Reason)
		fmt.Fprintln(w, cfg.Logger.Scrubber().RedactText(line))
	}
	_ = w.Flush()
}

func outputActionsJSON(actions []reconcile.Action) error {
	type actionJSON struct {
		Key    string `json:"key"`
		Kind   string `json:"kind"`
		Reason string `json:"reason"`
	}
	out := make([]actionJSON, len(actions))
	for i, a := range actions {
		out[i] = actionJSON{Key: a.Key, Kind: string(a.Kind), Reason: a.Reason}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
