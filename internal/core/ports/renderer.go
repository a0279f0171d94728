package ports

import (
	"context"
	"time"

	"go.trai.ch/incr/internal/core/domain"
)

// Renderer presents the progress of a build to the user.
//
//go:generate go run go.uber.org/mock/mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start begins presenting. It must not block.
	Start(ctx context.Context) error
	// Stop ends presenting once the build is over.
	Stop() error
	// Wait blocks until the renderer has terminated. A renderer the user closed before
	// Stop was called returns domain.ErrInterrupted.
	Wait() error
	// OnPlanEmit is called once the tasks to run are known, in execution order.
	OnPlanEmit(tasks []string, targets []string)
	// OnTaskStart is called when a task is picked up by a worker.
	OnTaskStart(name string, startTime time.Time)
	// OnTaskLog receives raw output of a running task.
	OnTaskLog(name string, data []byte)
	// OnTaskComplete is called when a task finished. result is nil when err is set.
	OnTaskComplete(name string, endTime time.Time, result *domain.IncrementalResult, err error)
	// OnTaskStatus reports whether a task is up-to-date without running it.
	OnTaskStatus(name string, upToDate bool, reason string)
}
