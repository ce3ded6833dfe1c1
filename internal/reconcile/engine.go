// Package reconcile decides, for every key in an environment, whether the
// remote secret store is stale relative to local state. Decisions compare
// three inputs: the resolved local environment, the remote listing snapshot,
// and the persisted manifest of hashes and remote timestamps.
package reconcile

import (
	"sort"

	"github.com/systmms/envsync/internal/contenthash"
	"github.com/systmms/envsync/internal/envfile"
	"github.com/systmms/envsync/internal/manifest"
	"github.com/systmms/envsync/internal/remote"
)

// Kind classifies what a sync action does to the remote store.
type Kind string

const (
	Create Kind = "CREATE"
	Update Kind = "UPDATE"
	Delete Kind = "DELETE"
	Noop   Kind = "NOOP"
)

// Reasons attached to planned actions. These appear verbatim in audit output.
const (
	ReasonMissingRemotely = "missing remotely"
	ReasonFirstSync       = "first sync"
	ReasonLocalEdit       = "local edit detected"
	ReasonRemoteDrift     = "remote drift"
	ReasonInSync          = "already in sync"
	ReasonNoTimestamp     = "insufficient information"
	ReasonRemovedLocally  = "removed locally"
)

// Action is one planned operation against the remote store.
type Action struct {
	Key    string
	Kind   Kind
	Reason string
}

// Options tunes planning behavior.
type Options struct {
	// TrustManifest treats a hash match as convergent even when timestamp
	// data is missing on either side, suppressing the conservative UPDATE
	// that planning otherwise emits. A hash mismatch still updates; this
	// flag never weakens local-edit detection.
	TrustManifest bool
}

// Plan computes the action for every key, evaluated per key in a fixed
// precedence order. First matching rule wins:
//
//  1. local key absent remotely                      -> CREATE
//  2. present both sides, no manifest entry          -> UPDATE (first sync)
//  3. manifest hash differs from the local value's   -> UPDATE (local edit)
//  4. hash matches, remote updatedAt drifted         -> UPDATE (remote drift)
//  5. hash and timestamp both match                  -> NOOP
//  6. hash matches, timestamp missing on either side -> UPDATE, or NOOP
//     under Options.TrustManifest
//  7. remote/manifest key absent locally             -> DELETE (reported,
//     never auto-applied without an explicit opt-in at the boundary)
//
// Local keys are emitted in sorted order, then deletes in sorted order, so
// repeated runs over the same inputs produce identical audit output.
func Plan(local *envfile.Resolved, snapshot []remote.Snapshot, m *manifest.Store, opts Options) []Action {
	remoteAt := make(map[string]string, len(snapshot))
	for _, s := range snapshot {
		remoteAt[s.Name] = s.UpdatedAt
	}

	var actions []Action
	for _, key := range local.SortedKeys() {
		value, _ := local.Get(key)
		actions = append(actions, planKey(local.Environment, key, value, remoteAt, m, opts))
	}

	actions = append(actions, planDeletes(local, remoteAt, m)...)
	return actions
}

func planKey(env, key, value string, remoteAt map[string]string, m *manifest.Store, opts Options) Action {
	remoteTS, existsRemotely := remoteAt[key]
	if !existsRemotely {
		return Action{Key: key, Kind: Create, Reason: ReasonMissingRemotely}
	}

	entry, ok := m.Get(env, key)
	if !ok {
		return Action{Key: key, Kind: Update, Reason: ReasonFirstSync}
	}

	if entry.ContentHash != contenthash.HashString(value) {
		return Action{Key: key, Kind: Update, Reason: ReasonLocalEdit}
	}

	// Hash converged; timestamps decide between drift, sync, and unknown.
	if entry.RemoteUpdatedAt == nil || remoteTS == "" {
		if opts.TrustManifest {
			return Action{Key: key, Kind: Noop, Reason: ReasonInSync}
		}
		return Action{Key: key, Kind: Update, Reason: ReasonNoTimestamp}
	}
	if *entry.RemoteUpdatedAt != remoteTS {
		return Action{Key: key, Kind: Update, Reason: ReasonRemoteDrift}
	}
	return Action{Key: key, Kind: Noop, Reason: ReasonInSync}
}

// planDeletes reports keys known remotely or in the manifest that no longer
// exist locally. These are never applied without explicit confirmation.
func planDeletes(local *envfile.Resolved, remoteAt map[string]string, m *manifest.Store) []Action {
	seen := make(map[string]bool)
	var keys []string

	for name := range remoteAt {
		if _, ok := local.Get(name); !ok && !seen[name] {
			seen[name] = true
			keys = append(keys, name)
		}
	}
	for _, e := range m.EntriesFor(local.Environment) {
		if _, ok := local.Get(e.Key); !ok && !seen[e.Key] {
			seen[e.Key] = true
			keys = append(keys, e.Key)
		}
	}

	sort.Strings(keys)
	actions := make([]Action, len(keys))
	for i, key := range keys {
		actions[i] = Action{Key: key, Kind: Delete, Reason: ReasonRemovedLocally}
	}
	return actions
}

// Pending reports whether any action in the plan would change the remote
// store (anything other than NOOP, with DELETE counted only when deletes
// are enabled).
func Pending(actions []Action, includeDeletes bool) int {
	n := 0
	for _, a := range actions {
		switch a.Kind {
		case Create, Update:
			n++
		case Delete:
			if includeDeletes {
				n++
			}
		}
	}
	return n
}
