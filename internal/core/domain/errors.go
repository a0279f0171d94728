package domain

import "go.trai.ch/zerr"

var (
	// ErrTaskAlreadyExists is returned when attempting to add a task with a name that already exists.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested task is not found in the graph.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrNoTargetsSpecified is returned when no targets are specified for the run command.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrReservedTaskName is returned when a task uses a reserved name (e.g., "all").
	ErrReservedTaskName = zerr.New("task name 'all' is reserved")

	// ErrInvalidTaskName is returned when a task name is empty or contains whitespace.
	ErrInvalidTaskName = zerr.New("invalid task name")

	// ErrPathNotAbsolute is returned when an input or output path handed to the cache is relative.
	ErrPathNotAbsolute = zerr.New("path must be absolute")

	// ErrOutputMissing is returned when a declared output does not exist after the work completed.
	ErrOutputMissing = zerr.New("path from outputs is not found")

	// ErrOutputPathOutsideRoot is returned when an output path is outside the project root.
	ErrOutputPathOutsideRoot = zerr.New("output path is outside project root")

	// ErrPathStatFailed is returned when stating a path fails for a reason other than absence.
	ErrPathStatFailed = zerr.New("failed to stat path")

	// ErrPathWalkFailed is returned when walking a directory fails.
	ErrPathWalkFailed = zerr.New("failed to walk directory")

	// ErrStateDirCreateFailed is returned when the state root directory cannot be created.
	ErrStateDirCreateFailed = zerr.New("failed to create state directory")

	// ErrStateOpenFailed is returned when the state file cannot be opened.
	ErrStateOpenFailed = zerr.New("failed to open state file")

	// ErrStateReadFailed is returned when the state file cannot be read.
	ErrStateReadFailed = zerr.New("failed to read state file")

	// ErrStateWriteFailed is returned when the state file cannot be written.
	ErrStateWriteFailed = zerr.New("failed to write state file")

	// ErrStateEncodeFailed is returned when the persisted state cannot be encoded.
	ErrStateEncodeFailed = zerr.New("failed to encode state")

	// ErrStateDecodeFailed is returned when a state file cannot be decoded.
	ErrStateDecodeFailed = zerr.New("failed to decode state")

	// ErrUnsupportedStateVersion is returned when a state file declares an unknown format version.
	ErrUnsupportedStateVersion = zerr.New("unsupported state format version")

	// ErrLockFailed is returned when the advisory file lock cannot be acquired or released.
	ErrLockFailed = zerr.New("failed to lock state file")

	// ErrValueEncodeFailed is returned when a cached value cannot be serialized.
	ErrValueEncodeFailed = zerr.New("failed to serialize cached value")

	// ErrExecutableHashFailed is returned when the running executable cannot be hashed.
	ErrExecutableHashFailed = zerr.New("failed to hash executable")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when the config file cannot be found.
	ErrConfigNotFound = zerr.New("could not find incr.yaml")

	// ErrInvalidExpiry is returned when a task declares an unparsable expiry duration.
	ErrInvalidExpiry = zerr.New("invalid expiry duration")

	// ErrBuildExecutionFailed is returned when the build execution fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrTaskExecutionFailed is returned when a task execution fails.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrInputResolutionFailed is returned when input resolution fails.
	ErrInputResolutionFailed = zerr.New("failed to resolve inputs")

	// ErrFailedToGetRoot is returned when the project root path cannot be determined.
	ErrFailedToGetRoot = zerr.New("failed to get absolute path of project root")

	// ErrFailedToResolveRelativePath is returned when a relative path cannot be resolved.
	ErrFailedToResolveRelativePath = zerr.New("failed to resolve relative path")

	// ErrFailedToCleanState is returned when the state directory cannot be removed.
	ErrFailedToCleanState = zerr.New("failed to remove state directory")

	// ErrInterrupted is returned when the user closed the interactive view during a run.
	ErrInterrupted = zerr.New("interrupted by user")

	// ErrUnknownOutputMode is returned when an output mode other than auto, tui or linear is requested.
	ErrUnknownOutputMode = zerr.New("unknown output mode")

	// ErrWatchFailed is returned when project files cannot be watched.
	ErrWatchFailed = zerr.New("failed to watch project files")
)
