package tui

import (
	"time"

	"go.trai.ch/incr/internal/core/domain"
)

// MsgPlan replaces the task list with the tasks of a new run.
type MsgPlan struct {
	Tasks   []string
	Targets []string
}

// MsgTaskStart marks a task as running.
type MsgTaskStart struct {
	Name string
	At   time.Time
}

// MsgTaskLog carries raw output of a running task.
type MsgTaskLog struct {
	Name string
	Data []byte
}

// MsgTaskComplete marks a task as finished. Result is nil when Err is set.
type MsgTaskComplete struct {
	Name   string
	At     time.Time
	Result *domain.IncrementalResult
	Err    error
}

// MsgTaskStatus reports whether a task would be reused without running it.
type MsgTaskStatus struct {
	Name     string
	UpToDate bool
	Reason   string
}
