package domain

import "path/filepath"

const (
	// IncrDirName is the name of the internal workspace directory.
	IncrDirName = ".incr"

	// StateDirName is the name of the directory holding one state file per cache id.
	StateDirName = "state"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "incr.yaml"

	// StateDirEnvVar overrides the state root directory.
	StateDirEnvVar = "INCR_STATE_DIR"

	// CodeVersionEnvVar overrides the code version recorded in state files.
	CodeVersionEnvVar = "INCR_CODE_VERSION"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultStatePath returns the default state root relative to a project root.
// It joins .incr and state.
func DefaultStatePath(root string) string {
	return filepath.Join(root, IncrDirName, StateDirName)
}
