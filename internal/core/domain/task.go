package domain

import "time"

// Task represents a unit of work in the build system.
// It uses InternedString for fields that are frequently repeated to save memory.
type Task struct {
	Name         InternedString
	Command      []string
	Inputs       []InternedString
	Outputs      []InternedString
	Excludes     []InternedString
	Dependencies []InternedString
	Environment  map[string]string
	WorkingDir   InternedString
	// Expires bounds how long a cached result may be reused. Zero means forever.
	Expires time.Duration
}
