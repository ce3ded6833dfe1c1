package reconcile

import (
	"context"

	"github.com/systmms/envsync/internal/contenthash"
	"github.com/systmms/envsync/internal/envfile"
	"github.com/systmms/envsync/internal/logging"
	"github.com/systmms/envsync/internal/manifest"
	"github.com/systmms/envsync/internal/remote"
	"github.com/systmms/envsync/internal/secure"
)

// ApplyOptions tunes how a plan is executed.
type ApplyOptions struct {
	// DeleteOrphans executes DELETE actions. Without it deletes are
	// skipped and reported; planning never makes that call on its own.
	DeleteOrphans bool
}

// Failure records one action that could not be applied. Other keys continue.
type Failure struct {
	Action Action
	Err    error
}

// Result summarizes one apply pass.
type Result struct {
	Applied []Action
	Skipped []Action
	Failed  []Failure
}

// Applier executes planned actions against a remote store and records each
// success in the manifest. A failed apply leaves the manifest entry for that
// key untouched so the next run retries the same decision.
type Applier struct {
	store    remote.Store
	manifest *manifest.Store
	logger   *logging.Logger
}

// NewApplier wires an applier to its store and manifest.
func NewApplier(store remote.Store, m *manifest.Store, logger *logging.Logger) *Applier {
	return &Applier{store: store, manifest: m, logger: logger}
}

// Apply executes the plan sequentially against the snapshot the plan was
// computed from. Per-key failures are collected, not fatal. After all
// writes, the remote is listed once more so manifest entries carry the
// timestamp the store assigned; if that listing fails the entries keep a nil
// timestamp, which the next plan treats conservatively.
func (a *Applier) Apply(ctx context.Context, local *envfile.Resolved, snapshot []remote.Snapshot, actions []Action, opts ApplyOptions) *Result {
	result := &Result{}
	var written []string

	existsRemotely := make(map[string]bool, len(snapshot))
	for _, s := range snapshot {
		existsRemotely[s.Name] = true
	}

	for _, action := range actions {
		switch action.Kind {
		case Noop:
			result.Skipped = append(result.Skipped, action)

		case Create, Update:
			if err := a.applySet(ctx, local, action.Key); err != nil {
				a.logger.Error("Failed to apply %s for %s: %v", action.Kind, action.Key, err)
				result.Failed = append(result.Failed, Failure{Action: action, Err: err})
				continue
			}
			written = append(written, action.Key)
			result.Applied = append(result.Applied, action)

		case Delete:
			if !opts.DeleteOrphans {
				a.logger.Warn("Skipping delete of %s (re-run with deletes enabled to remove it)", action.Key)
				result.Skipped = append(result.Skipped, action)
				continue
			}
			// A manifest-only orphan has nothing left to delete remotely
			// (out-of-band remote delete); invoking the CLI would fail
			// forever and keep the stale entry. Drop the entry directly.
			if existsRemotely[action.Key] {
				if err := a.store.Delete(ctx, action.Key); err != nil {
					result.Failed = append(result.Failed, Failure{Action: action, Err: err})
					continue
				}
			} else {
				a.logger.Debug("Secret %s already absent remotely, clearing manifest entry", action.Key)
			}
			a.manifest.Delete(local.Environment, action.Key)
			result.Applied = append(result.Applied, action)
		}
	}

	if len(written) > 0 {
		a.recordTimestamps(ctx, local, written)
	}
	return result
}

func (a *Applier) applySet(ctx context.Context, local *envfile.Resolved, key string) error {
	value, ok := local.Get(key)
	if !ok {
		return envfile.ParseError{File: local.SourceFile, Reason: "key " + key + " vanished during apply"}
	}

	sv := secure.NewValue(value)
	defer sv.Destroy()

	if err := a.store.Set(ctx, key, sv); err != nil {
		return err
	}

	a.manifest.Put(manifest.Entry{
		Environment: local.Environment,
		Key:         key,
		ContentHash: contenthash.HashString(value),
		SourceFile:  local.SourceFile,
	})
	return nil
}

// recordTimestamps backfills RemoteUpdatedAt for freshly written keys from a
// post-apply listing.
func (a *Applier) recordTimestamps(ctx context.Context, local *envfile.Resolved, keys []string) {
	snapshot, err := a.store.List(ctx)
	if err != nil {
		a.logger.Warn("Could not confirm remote timestamps after apply: %v", err)
		return
	}

	at := make(map[string]string, len(snapshot))
	for _, s := range snapshot {
		at[s.Name] = s.UpdatedAt
	}
	for _, key := range keys {
		entry, ok := a.manifest.Get(local.Environment, key)
		if !ok {
			continue
		}
		if ts, seen := at[key]; seen && ts != "" {
			tsCopy := ts
			entry.RemoteUpdatedAt = &tsCopy
			a.manifest.Put(entry)
		}
	}
}
