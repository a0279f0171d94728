// Package incremental implements the incremental execution cache.
//
// A unit of work is identified by a cache id. Its result is reused while the
// configuration, the input path set, the state of the inputs and the state of the
// outputs it produced last time are all unchanged. Calls sharing an id are serialized
// within the process and across processes using the same state root.
package incremental

import (
	"context"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/incr/internal/core/ports"
	"go.trai.ch/zerr"
)

// Span attribute values for the status attribute.
const (
	StatusUpToDate         = "up-to-date"
	StatusRequiresBuilding = "requires-building"
)

// Work is a unit of work whose result is cached.
type Work func(ctx context.Context) (domain.ExecutionResult, error)

// Cache is the incremental execution cache.
type Cache struct {
	stateRoot   string
	codeVersion string
	reader      ports.PathStateReader
	codec       ports.StateCodec
	locker      ports.Locker
	logger      ports.Logger
	tracer      ports.Tracer
	now         func() time.Time
	lookupEnv   func(string) (string, bool)
}

// New creates a cache storing one state file per id below stateRoot.
// codeVersion identifies the logic producing the cached results. Records written
// with another code version are never reused.
func New(
	stateRoot, codeVersion string,
	reader ports.PathStateReader,
	codec ports.StateCodec,
	locker ports.Locker,
	logger ports.Logger,
	tracer ports.Tracer,
	opts ...Option,
) *Cache {
	c := &Cache{
		stateRoot:   stateRoot,
		codeVersion: codeVersion,
		reader:      reader,
		codec:       codec,
		locker:      locker,
		logger:      logger,
		tracer:      tracer,
		now:         time.Now,
		lookupEnv:   lookupEnv,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StateRoot returns the directory holding the state files.
func (c *Cache) StateRoot() string {
	return c.stateRoot
}

// StatePath returns the state file path used for id.
func (c *Cache) StatePath(id string) string {
	return filepath.Join(c.stateRoot, domain.StateFileName(id))
}

// Execute runs work, or returns the result of its last run when nothing it depends on changed.
//
// Every input and every output reported by work must be an absolute path. Outputs
// must exist once work returns, otherwise nothing is persisted and an error is returned.
// A *domain.InconsistentStateError reports a record that did not validate right after
// it was written; the record is deleted in that case.
func (c *Cache) Execute(
	ctx context.Context,
	id string,
	configuration map[string]string,
	inputs []string,
	work Work,
	opts ...ExecuteOption,
) (*domain.IncrementalResult, error) {
	cfg := executeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := requireAbsolute(inputs); err != nil {
		return nil, zerr.With(err, "id", id)
	}
	inputSet := domain.NormalizePathSet(inputs)

	ctx, span := c.tracer.Start(ctx, "inc "+id,
		ports.WithAttribute("configuration", configuration),
		ports.WithAttribute("inputs", inputSet),
	)
	defer span.End()

	var result *domain.IncrementalResult
	err := c.locker.WithLock(ctx, id, c.StatePath(id), func(ctx context.Context, handle ports.StateHandle) error {
		run := execution{
			cache:         c,
			id:            id,
			handle:        handle,
			span:          span,
			configuration: configuration,
			inputs:        inputSet,
			force:         cfg.force,
		}
		var err error
		result, err = run.do(ctx, work)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result, nil
}

// ExecuteForFiles is Execute for work that only produces files.
func (c *Cache) ExecuteForFiles(
	ctx context.Context,
	id string,
	configuration map[string]string,
	inputs []string,
	work func(ctx context.Context) ([]string, error),
	opts ...ExecuteOption,
) ([]string, error) {
	res, err := c.Execute(ctx, id, configuration, inputs, func(ctx context.Context) (domain.ExecutionResult, error) {
		outputs, err := work(ctx)
		if err != nil {
			return domain.ExecutionResult{}, err
		}
		return domain.ExecutionResult{Outputs: outputs}, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return res.Outputs, nil
}

// Status reports whether the last result recorded for id is still valid, without running anything.
// The returned reason explains why a result is outdated.
func (c *Cache) Status(
	ctx context.Context,
	id string,
	configuration map[string]string,
	inputs []string,
) (upToDate bool, reason string, err error) {
	if err := requireAbsolute(inputs); err != nil {
		return false, "", zerr.With(err, "id", id)
	}
	inputSet := domain.NormalizePathSet(inputs)

	err = c.locker.WithLock(ctx, id, c.StatePath(id), func(_ context.Context, handle ports.StateHandle) error {
		state := c.readState(handle)
		if state == nil {
			reason = "no recorded state"
			return nil
		}
		reason = c.staleReason(state, expectation{configuration: configuration, inputs: inputSet})
		upToDate = reason == ""
		return nil
	})
	return upToDate, reason, err
}

// readState returns the record held by handle, or nil when there is none or it cannot be used.
func (c *Cache) readState(handle ports.StateHandle) *domain.PersistedState {
	data, err := handle.ReadAll()
	if err != nil {
		c.logger.Warn("[inc] cannot read state file, treating as a miss", "state", handle.Path(), "error", err.Error())
		return nil
	}
	if len(data) == 0 {
		c.logger.Debug("[inc] no state file", "state", handle.Path())
		return nil
	}

	state, err := c.codec.Decode(data)
	if err != nil {
		c.logger.Warn("[inc] cannot decode state file, treating as a miss", "state", handle.Path(), "error", err.Error())
		return nil
	}
	return state
}

// recordState assembles the record for a finished unit of work.
func (c *Cache) recordState(
	configuration map[string]string,
	inputs []string,
	result domain.ExecutionResult,
	dynamic domain.DynamicInputsState,
) (*domain.PersistedState, error) {
	inputsState, err := c.reader.ReadPathState(inputs, c.excluding(nil), domain.MissingIsRecorded)
	if err != nil {
		return nil, err
	}

	outputsState, err := c.reader.ReadPathState(result.Outputs, c.excluding(result.ExcludedOutputs), domain.MissingIsError)
	if err != nil {
		return nil, err
	}

	return &domain.PersistedState{
		CodeVersion:      c.codeVersion,
		Configuration:    maps.Clone(configuration),
		Inputs:           inputs,
		InputsState:      inputsState,
		Outputs:          slices.Clone(result.Outputs),
		OutputsState:     outputsState,
		OutputProperties: maps.Clone(result.OutputProperties),
		ExcludedOutputs:  domain.NormalizePathSet(result.ExcludedOutputs),
		ExpiresAt:        result.ExpiresAt,
		DynamicInputs:    dynamic,
	}, nil
}

// excluding adds the state root to excluded. Writing a state file must never change
// the fingerprint of a directory that contains the state root.
func (c *Cache) excluding(excluded []string) []string {
	return append(slices.Clip(excluded), c.stateRoot)
}

func requireAbsolute(paths []string) error {
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			return zerr.With(domain.ErrPathNotAbsolute, "path", p)
		}
	}
	return nil
}
