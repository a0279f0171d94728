package incremental

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"go.trai.ch/incr/internal/core/domain"
)

// expectation is what the caller currently asks for.
type expectation struct {
	configuration map[string]string
	inputs        []string
	now           time.Time
	ignoreExpiry  bool
}

// staleReason compares a record against the current request and filesystem.
// It returns "" when the record can be reused, and otherwise the first reason it cannot.
// Failures to fingerprint the filesystem are reasons too, never errors.
func (c *Cache) staleReason(state *domain.PersistedState, exp expectation) string {
	if state.CodeVersion != c.codeVersion {
		return fmt.Sprintf("state was written by code version %q, current is %q", state.CodeVersion, c.codeVersion)
	}

	if !exp.ignoreExpiry {
		now := exp.now
		if now.IsZero() {
			now = c.now()
		}
		if state.Expired(now) {
			return "state expired at " + state.ExpiresAt.UTC().Format(time.RFC3339)
		}
	}

	if !maps.Equal(state.Configuration, exp.configuration) {
		return fmt.Sprintf("configuration changed: old %v, new %v", state.Configuration, exp.configuration)
	}

	if !slices.Equal(domain.NormalizePathSet(state.Inputs), exp.inputs) {
		return fmt.Sprintf("input path set changed: old %v, new %v", state.Inputs, exp.inputs)
	}

	inputsState, err := c.reader.ReadPathState(exp.inputs, c.excluding(nil), domain.MissingIsRecorded)
	if err != nil {
		return "cannot read inputs: " + err.Error()
	}
	if !state.InputsState.Equal(inputsState) {
		return "inputs changed: " + describeDiff(state.InputsState, inputsState)
	}

	outputsState, err := c.reader.ReadPathState(state.Outputs, c.excluding(state.ExcludedOutputs), domain.MissingIsRecorded)
	if err != nil {
		return "cannot read outputs: " + err.Error()
	}
	if !state.OutputsState.Equal(outputsState) {
		return "outputs changed: " + describeDiff(state.OutputsState, outputsState)
	}

	return c.dynamicInputsReason(state.DynamicInputs)
}

func (c *Cache) dynamicInputsReason(dynamic domain.DynamicInputsState) string {
	for _, name := range slices.Sorted(maps.Keys(dynamic.Env)) {
		recorded := dynamic.Env[name]
		value, ok := c.lookupEnv(name)
		switch {
		case recorded == nil && ok:
			return "environment variable " + name + " is now set"
		case recorded != nil && !ok:
			return "environment variable " + name + " is now unset"
		case recorded != nil && *recorded != value:
			return "environment variable " + name + " changed"
		}
	}

	for _, path := range slices.Sorted(maps.Keys(dynamic.PathsExist)) {
		exists, err := c.reader.PathExists(path)
		if err != nil {
			return "cannot check " + path + ": " + err.Error()
		}
		if exists != dynamic.PathsExist[path] {
			return fmt.Sprintf("existence of %s changed to %t", path, exists)
		}
	}
	return ""
}

// describeDiff summarizes how two path states differ, listing the changed paths.
func describeDiff(old, current domain.PathState) string {
	changes := domain.ComputeChanges(old, current)
	const maxListed = 5
	parts := make([]string, 0, min(len(changes), maxListed)+1)
	for i, ch := range changes {
		if i == maxListed {
			parts = append(parts, fmt.Sprintf("and %d more", len(changes)-maxListed))
			break
		}
		parts = append(parts, fmt.Sprintf("%s %s", ch.Path, ch.Type))
	}
	return fmt.Sprint(parts)
}
