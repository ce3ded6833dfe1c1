package reconcile

import "github.com/systmms/envsync/internal/envfile"

// DriftKind classifies a cross-environment discrepancy.
type DriftKind string

const (
	// MissingKey means production has the key and the other environment
	// does not.
	MissingKey DriftKind = "missing"

	// OrphanKey means the other environment has a key production does not.
	OrphanKey DriftKind = "orphaned"
)

// DriftWarning reports one key out of step between production and another
// environment. Warnings are read-only observations; they never become sync
// actions.
type DriftWarning struct {
	Environment string
	Key         string
	Kind        DriftKind
}

// Message renders the warning for display. Only key names appear, never
// values.
func (w DriftWarning) Message() string {
	if w.Kind == MissingKey {
		return w.Environment + " is missing key " + w.Key
	}
	return w.Environment + " has orphaned key " + w.Key + " (not in production)"
}

// CompareEnvironments reports keys present in production but absent from
// other, then keys present in other but absent from production. Both lists
// come out in sorted key order.
func CompareEnvironments(production, other *envfile.Resolved) []DriftWarning {
	var warnings []DriftWarning

	for _, key := range production.SortedKeys() {
		if _, ok := other.Get(key); !ok {
			warnings = append(warnings, DriftWarning{
				Environment: other.Environment,
				Key:         key,
				Kind:        MissingKey,
			})
		}
	}
	for _, key := range other.SortedKeys() {
		if _, ok := production.Get(key); !ok {
			warnings = append(warnings, DriftWarning{
				Environment: other.Environment,
				Key:         key,
				Kind:        OrphanKey,
			})
		}
	}
	return warnings
}
