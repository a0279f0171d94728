package domain

import "time"

// ExecutionResult is what a unit of work reports back to the cache.
type ExecutionResult struct {
	// Outputs are the absolute paths of files and directories produced by the work.
	Outputs []string
	// OutputProperties are non-file values produced by the work.
	OutputProperties map[string]string
	// ExcludedOutputs are absolute paths below Outputs whose state is ignored.
	ExcludedOutputs []string
	// ExpiresAt, when set, bounds how long the result may be reused.
	ExpiresAt time.Time
}

// IncrementalResult is the outcome of a cached execution.
type IncrementalResult struct {
	ExecutionResult
	// Changes lists the output paths that changed compared to the previous execution.
	// It is empty when the cached result was reused.
	Changes []Change
	// UpToDate reports whether the cached result was reused.
	UpToDate bool
}
