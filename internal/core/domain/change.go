package domain

import (
	"cmp"
	"slices"
)

// ChangeType classifies how an output path changed between two executions.
type ChangeType string

const (
	// ChangeCreated marks a path that only exists in the new state.
	ChangeCreated ChangeType = "CREATED"
	// ChangeModified marks a path whose fingerprint differs between states.
	ChangeModified ChangeType = "MODIFIED"
	// ChangeDeleted marks a path that only exists in the old state.
	ChangeDeleted ChangeType = "DELETED"
)

// Change is one entry of an output change set.
type Change struct {
	Path string
	Type ChangeType
}

// ComputeChanges diffs two output states. The result is sorted by path.
func ComputeChanges(previous, current PathState) []Change {
	changes := make([]Change, 0)
	for path, fp := range current {
		old, ok := previous[path]
		switch {
		case !ok:
			changes = append(changes, Change{Path: path, Type: ChangeCreated})
		case old != fp:
			changes = append(changes, Change{Path: path, Type: ChangeModified})
		}
	}
	for path := range previous {
		if _, ok := current[path]; !ok {
			changes = append(changes, Change{Path: path, Type: ChangeDeleted})
		}
	}
	slices.SortFunc(changes, func(a, b Change) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return changes
}
