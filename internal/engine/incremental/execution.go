package incremental

import (
	"context"
	"maps"
	"slices"

	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/incr/internal/core/ports"
	"go.trai.ch/zerr"
)

// execution is one Execute call running under the lock of its id.
type execution struct {
	cache         *Cache
	id            string
	handle        ports.StateHandle
	span          ports.Span
	configuration map[string]string
	inputs        []string
	force         bool
}

func (e *execution) do(ctx context.Context, work Work) (*domain.IncrementalResult, error) {
	c := e.cache
	previous := c.readState(e.handle)

	if previous != nil && !e.force {
		reason := c.staleReason(previous, expectation{
			configuration: e.configuration,
			inputs:        e.inputs,
			now:           c.now(),
		})
		if reason == "" {
			return e.upToDate(ctx, previous), nil
		}
		c.logger.Debug("[inc] "+reason+" -> rebuilding", "id", e.id, "state", e.handle.Path())
	}

	e.span.SetAttribute("status", StatusRequiresBuilding)
	e.span.SetAttribute("forceRecalculation", e.force)
	c.logger.Debug("[inc] building", "id", e.id)

	recorder := newDynamicInputs(c)
	result, err := work(withDynamicInputs(ctx, recorder))
	if err != nil {
		return nil, err
	}
	e.addResultToSpan(result)

	if err := requireAbsolute(result.Outputs); err != nil {
		return nil, zerr.With(err, "id", e.id)
	}
	if err := requireAbsolute(result.ExcludedOutputs); err != nil {
		return nil, zerr.With(err, "id", e.id)
	}

	dynamic := recorder.snapshot()
	state, err := c.recordState(e.configuration, e.inputs, result, dynamic)
	if err != nil {
		return nil, zerr.With(err, "id", e.id)
	}

	data, err := c.codec.Encode(state)
	if err != nil {
		return nil, zerr.With(err, "id", e.id)
	}
	if err := e.handle.Replace(data); err != nil {
		return nil, err
	}

	if err := e.ensureConsistent(result); err != nil {
		return nil, err
	}

	var previousOutputs domain.PathState
	if previous != nil {
		previousOutputs = previous.OutputsState
	}
	changes := domain.ComputeChanges(previousOutputs, state.OutputsState)
	c.logger.Debug("[inc] finished", "id", e.id, "changes", len(changes))

	return &domain.IncrementalResult{
		ExecutionResult: result,
		Changes:         changes,
	}, nil
}

func (e *execution) upToDate(ctx context.Context, state *domain.PersistedState) *domain.IncrementalResult {
	e.cache.logger.Debug("[inc] up-to-date", "id", e.id, "state", e.handle.Path())
	e.span.SetAttribute("status", StatusUpToDate)

	DynamicInputsFrom(ctx).merge(state.DynamicInputs)

	result := domain.ExecutionResult{
		Outputs:          state.Outputs,
		OutputProperties: state.OutputProperties,
		ExcludedOutputs:  state.ExcludedOutputs,
		ExpiresAt:        state.ExpiresAt,
	}
	e.addResultToSpan(result)

	return &domain.IncrementalResult{
		ExecutionResult: result,
		Changes:         []domain.Change{},
		UpToDate:        true,
	}
}

// ensureConsistent reads back the record just written and validates it like a later call would.
// A record that cannot be read back or would not be reused is removed.
func (e *execution) ensureConsistent(result domain.ExecutionResult) error {
	c := e.cache

	data, err := e.handle.ReadAll()
	if err != nil {
		e.discardState()
		return zerr.With(err, "id", e.id)
	}

	reason := "not up-to-date after successfully writing a state file"
	if state := c.readState(e.handle); state != nil {
		reason = c.staleReason(state, expectation{
			configuration: e.configuration,
			inputs:        e.inputs,
			ignoreExpiry:  true,
		})
		switch {
		case reason != "":
			reason = "not up-to-date after successfully writing a state file (" + reason + ")"
		case !slices.Equal(state.Outputs, result.Outputs):
			reason = "output files list mismatch"
		case !maps.Equal(state.OutputProperties, result.OutputProperties):
			reason = "output properties mismatch"
		}
	}
	if reason == "" {
		return nil
	}

	e.discardState()
	return &domain.InconsistentStateError{
		StateFile: e.handle.Path(),
		Reason:    reason,
		Content:   string(data),
	}
}

func (e *execution) discardState() {
	if err := e.handle.Remove(); err != nil {
		e.cache.logger.Error(err)
	}
}

func (e *execution) addResultToSpan(result domain.ExecutionResult) {
	e.span.SetAttribute("outputs", domain.NormalizePathSet(result.Outputs))
	e.span.SetAttribute("outputProperties", result.OutputProperties)
}
