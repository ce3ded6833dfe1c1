package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/systmms/envsync/internal/backup"
	"github.com/systmms/envsync/internal/config"
	"github.com/systmms/envsync/internal/contenthash"
)

// NewBackupCommand creates the backup command group.
func NewBackupCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage point-in-time copies of the canonical .env file",
	}

	cmd.AddCommand(
		newBackupCreateCommand(cfg),
		newBackupCleanupCommand(cfg),
	)
	return cmd
}

func newBackupCreateCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Back up the .env file unless the latest backup already matches it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cfg); err != nil {
				return err
			}

			source := filepath.Join(cfg.EnvDir(), ".env")
			sourceHash, err := contenthash.HashFile(source)
			if err != nil {
				return err
			}

			existing, err := backup.Discover(cfg.BackupDir())
			if err != nil {
				return err
			}

			if !backup.ShouldCreateBackup(sourceHash, backup.MostRecentHash(existing)) {
				cfg.Logger.Info("Latest backup already matches %s, skipping", source)
				return nil
			}

			path, err := backup.Create(source, cfg.BackupDir(), time.Now())
			if err != nil {
				return err
			}
			cfg.Logger.Info("Backed up %s to %s", source, path)
			return nil
		},
	}
}

func newBackupCleanupCommand(cfg *config.Config) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Collapse duplicate backups and apply the retention count",
		Long: `Cleanup groups backups by content hash, keeps the newest copy of
each unique version, then keeps only the configured number of versions
(newest first). Backups that cannot be hashed are never removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cfg); err != nil {
				return err
			}

			all, err := backup.Discover(cfg.BackupDir())
			if err != nil {
				return err
			}
			// Unhashable backups have no usable identity; they are kept
			// outside the retention window so the problem stays visible.
			var hashed, broken []backup.Info
			for _, b := range all {
				if b.HashErr != nil {
					cfg.Logger.Warn("Backup %s could not be hashed and needs attention: %v", b.Name, b.HashErr)
					broken = append(broken, b)
					continue
				}
				hashed = append(hashed, b)
			}

			keep := backup.ApplyRetention(backup.Dedupe(hashed), cfg.Retention())
			keep = append(keep, broken...)

			if dryRun {
				cfg.Logger.Info("Would keep %d of %d backup(s)", len(keep), len(all))
				return nil
			}

			removed, errs := backup.Prune(all, keep)
			for _, err := range errs {
				cfg.Logger.Error("%v", err)
			}
			cfg.Logger.Info("Removed %d backup(s), kept %d", len(removed), len(keep))
			if len(errs) > 0 {
				return fmt.Errorf("%d backup(s) could not be removed", len(errs))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what cleanup would remove without deleting anything")

	return cmd
}
