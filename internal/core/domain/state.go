package domain

import (
	"maps"
	"time"
)

// PersistedState is the durable record stored for one cache id.
type PersistedState struct {
	CodeVersion      string
	Configuration    map[string]string
	Inputs           []string
	InputsState      PathState
	Outputs          []string
	OutputsState     PathState
	OutputProperties map[string]string
	ExcludedOutputs  []string
	ExpiresAt        time.Time
	DynamicInputs    DynamicInputsState
}

// Expired reports whether the record has an expiry that is not after now.
func (s *PersistedState) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// DynamicInputsState holds the environment variables and path existence checks
// observed while the unit of work ran.
type DynamicInputsState struct {
	// Env maps a variable name to its value, or nil when it was unset.
	Env map[string]*string
	// PathsExist maps an absolute path to whether it existed.
	PathsExist map[string]bool
}

// IsEmpty reports whether nothing was recorded.
func (d DynamicInputsState) IsEmpty() bool {
	return len(d.Env) == 0 && len(d.PathsExist) == 0
}

// Merge adds all observations of other into d.
func (d *DynamicInputsState) Merge(other DynamicInputsState) {
	if len(other.Env) > 0 {
		if d.Env == nil {
			d.Env = make(map[string]*string, len(other.Env))
		}
		maps.Copy(d.Env, other.Env)
	}
	if len(other.PathsExist) > 0 {
		if d.PathsExist == nil {
			d.PathsExist = make(map[string]bool, len(other.PathsExist))
		}
		maps.Copy(d.PathsExist, other.PathsExist)
	}
}

// Equal compares two recorded states by value.
func (d DynamicInputsState) Equal(other DynamicInputsState) bool {
	if !maps.Equal(d.PathsExist, other.PathsExist) {
		return false
	}
	return maps.EqualFunc(d.Env, other.Env, func(a, b *string) bool {
		if a == nil || b == nil {
			return a == b
		}
		return *a == *b
	})
}
