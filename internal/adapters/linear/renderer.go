// Package linear provides a synchronous, line-buffered renderer for build progress.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/incr/internal/core/ports"
	"go.trai.ch/incr/internal/ui/output"
	"go.trai.ch/incr/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer implements ports.Renderer with chronological, task-prefixed lines.
// Task output goes to stdout, status lines to stderr.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	styles *lipgloss.Renderer

	mu      sync.Mutex
	started map[string]time.Time
	buffers map[string]*bytes.Buffer
}

// NewRenderer creates a new Renderer. Nil writers default to the process streams.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	styles := lipgloss.NewRenderer(stderr)
	styles.SetColorProfile(output.ColorProfileANSI())

	return &Renderer{
		stdout:  stdout,
		stderr:  stderr,
		styles:  styles,
		started: make(map[string]time.Time),
		buffers: make(map[string]*bytes.Buffer),
	}
}

// Start implements ports.Renderer. Lines are written as events arrive, so there is nothing to set up.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop implements ports.Renderer.
func (r *Renderer) Stop() error {
	return nil
}

// Wait implements ports.Renderer. It returns at once.
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints the planned tasks.
func (r *Renderer) OnPlanEmit(tasks, targets []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "Planning %d task(s) for target(s): %v\n", len(tasks), targets)
}

// OnTaskStart records the start of a task.
func (r *Renderer) OnTaskStart(name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.started[name] = startTime
	r.buffers[name] = new(bytes.Buffer)
}

// OnTaskLog buffers output and prints complete lines with the task prefix.
func (r *Renderer) OnTaskLog(name string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf, ok := r.buffers[name]
	if !ok {
		return
	}
	buf.Write(data)

	for {
		idx := bytes.IndexByte(buf.Bytes(), '\n')
		if idx < 0 {
			return
		}
		line := buf.Next(idx + 1)
		r.printLineLocked(name, line)
	}
}

// OnTaskComplete flushes pending output and prints the outcome with the output changes.
func (r *Renderer) OnTaskComplete(name string, endTime time.Time, result *domain.IncrementalResult, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flushLocked(name)
	duration := endTime.Sub(r.started[name]).Round(time.Millisecond)
	delete(r.started, name)
	delete(r.buffers, name)

	prefix := r.prefix(name)
	switch {
	case err != nil:
		symbol := r.render(style.Failed, style.Cross)
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, symbol, duration, err)
	case result.UpToDate:
		symbol := r.render(style.UpToDate, style.Check)
		_, _ = fmt.Fprintf(r.stderr, "%s %s %s\n", prefix, symbol, r.render(style.UpToDate, "Up-to-date"))
	default:
		symbol := r.render(style.Built, style.Check)
		_, _ = fmt.Fprintf(r.stderr, "%s %s Built in %v\n", prefix, symbol, duration)
		for _, ch := range result.Changes {
			_, _ = fmt.Fprintf(r.stderr, "    %s\n", r.change(ch))
		}
	}
}

// OnTaskStatus prints whether a task would run.
func (r *Renderer) OnTaskStatus(name string, upToDate bool, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := r.prefix(name)
	if upToDate {
		_, _ = fmt.Fprintf(r.stderr, "%s %s up-to-date\n", prefix, r.render(style.UpToDate, style.Check))
		return
	}
	_, _ = fmt.Fprintf(r.stderr, "%s %s outdated: %s\n", prefix, r.render(style.Accent, style.Circle), reason)
}

func (r *Renderer) change(ch domain.Change) string {
	switch ch.Type {
	case domain.ChangeCreated:
		return r.render(style.Created, "+ "+ch.Path)
	case domain.ChangeDeleted:
		return r.render(style.Deleted, "- "+ch.Path)
	default:
		return r.render(style.Modified, style.Tilde+" "+ch.Path)
	}
}

func (r *Renderer) render(s lipgloss.Style, text string) string {
	return s.Renderer(r.styles).Render(text)
}

func (r *Renderer) prefix(name string) string {
	return r.styles.NewStyle().Faint(true).Render("[" + name + "]")
}

// flushLocked prints a trailing partial line. Must be called with r.mu held.
func (r *Renderer) flushLocked(name string) {
	buf, ok := r.buffers[name]
	if !ok || buf.Len() == 0 {
		return
	}
	r.printLineLocked(name, buf.Bytes())
	buf.Reset()
}

// printLineLocked prints a line with the task name prefix. Must be called with r.mu held.
func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "%s %s\n", r.prefix(name), line)
}
