package tui

import (
	"context"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/incr/internal/core/ports"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer runs a Model as a bubbletea program and forwards build events to it.
type Renderer struct {
	program *tea.Program
	errCh   chan error
	stopped atomic.Bool
}

// NewRenderer creates a renderer for model. opts are passed to the bubbletea program.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		errCh:   make(chan error, 1),
	}
}

// Start runs the program in the background.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		if err == nil && !r.stopped.Load() {
			err = domain.ErrInterrupted
		}
		r.errCh <- err
	}()
	return nil
}

// Stop asks the program to exit after drawing the final state.
func (r *Renderer) Stop() error {
	r.stopped.Store(true)
	r.program.Quit()
	return nil
}

// Wait blocks until the program exited.
func (r *Renderer) Wait() error {
	return <-r.errCh
}

// OnPlanEmit implements ports.Renderer.
func (r *Renderer) OnPlanEmit(tasks, targets []string) {
	r.program.Send(MsgPlan{Tasks: tasks, Targets: targets})
}

// OnTaskStart implements ports.Renderer.
func (r *Renderer) OnTaskStart(name string, startTime time.Time) {
	r.program.Send(MsgTaskStart{Name: name, At: startTime})
}

// OnTaskLog implements ports.Renderer.
func (r *Renderer) OnTaskLog(name string, data []byte) {
	r.program.Send(MsgTaskLog{Name: name, Data: data})
}

// OnTaskComplete implements ports.Renderer.
func (r *Renderer) OnTaskComplete(name string, endTime time.Time, result *domain.IncrementalResult, err error) {
	r.program.Send(MsgTaskComplete{Name: name, At: endTime, Result: result, Err: err})
}

// OnTaskStatus implements ports.Renderer.
func (r *Renderer) OnTaskStatus(name string, upToDate bool, reason string) {
	r.program.Send(MsgTaskStatus{Name: name, UpToDate: upToDate, Reason: reason})
}
