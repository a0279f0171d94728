package tui_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/incr/internal/adapters/tui"
	"go.trai.ch/incr/internal/core/domain"
)

func newHeadlessRenderer(m *tui.Model, input string) *tui.Renderer {
	return tui.NewRenderer(m,
		tea.WithInput(strings.NewReader(input)),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
		tea.WithoutRenderer(),
	)
}

func TestRenderer_Lifecycle(t *testing.T) {
	r := newHeadlessRenderer(tui.NewModel(io.Discard), "")

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Stop())
	require.NoError(t, r.Wait())
}

func TestRenderer_ForwardsEvents(t *testing.T) {
	m := tui.NewModel(io.Discard)
	r := newHeadlessRenderer(m, "")
	require.NoError(t, r.Start(context.Background()))

	start := time.Now()
	r.OnPlanEmit([]string{"generate", "compile"}, []string{"compile"})
	r.OnTaskStart("generate", start)
	r.OnTaskLog("generate", []byte("writing gen.go\r\n"))
	r.OnTaskComplete("generate", start.Add(time.Second), &domain.IncrementalResult{}, nil)
	r.OnTaskStart("compile", start)
	r.OnTaskComplete("compile", start.Add(time.Second), nil, errors.New("exit status 1"))
	r.OnTaskStatus("generate", true, "")

	require.NoError(t, r.Stop())
	require.NoError(t, r.Wait())

	require.Len(t, m.Tasks, 2)
	assert.Equal(t, tui.StatusUpToDate, m.Tasks[0].Status)
	assert.Contains(t, m.Tasks[0].Term.View(), "writing gen.go")
	assert.Equal(t, tui.StatusFailed, m.Tasks[1].Status)
}

func TestRenderer_QuitByUserIsAnInterruption(t *testing.T) {
	r := newHeadlessRenderer(tui.NewModel(io.Discard), "q")

	require.NoError(t, r.Start(context.Background()))
	err := r.Wait()
	require.ErrorIs(t, err, domain.ErrInterrupted)
}
