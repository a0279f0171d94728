package tui_test

import (
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/incr/internal/adapters/tui"
	"go.trai.ch/incr/internal/core/domain"
)

func plannedModel(t *testing.T, tasks ...string) *tui.Model {
	t.Helper()
	m := tui.NewModel(io.Discard)
	update(t, m, tui.MsgPlan{Tasks: tasks, Targets: tasks[len(tasks)-1:]})
	update(t, m, tea.WindowSizeMsg{Width: 100, Height: 20})
	return m
}

func update(t *testing.T, m *tui.Model, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := m.Update(msg)
	require.Same(t, m, next)
	return cmd
}

func TestModel_Plan(t *testing.T) {
	m := plannedModel(t, "generate", "compile")

	require.Len(t, m.Tasks, 2)
	assert.Equal(t, "generate", m.Tasks[0].Name)
	assert.False(t, m.Tasks[0].Target)
	assert.True(t, m.Tasks[1].Target)
	assert.Equal(t, tui.StatusPending, m.Tasks[1].Status)
	assert.Same(t, m.Tasks[1], m.TaskMap["compile"])
}

func TestModel_Resize(t *testing.T) {
	m := plannedModel(t, "compile")

	listWidth := int(float64(100) * 0.3)
	assert.Equal(t, 100-listWidth-4, m.LogWidth)
	assert.Equal(t, m.LogWidth, m.Tasks[0].Term.Width)
	assert.Equal(t, m.LogHeight, m.Tasks[0].Term.Height)
	assert.Positive(t, m.ListHeight)
	assert.Less(t, m.ListHeight, 20)
}

func TestModel_TaskLifecycle(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		done    tui.MsgTaskComplete
		want    tui.TaskStatus
		changes int
	}{
		{
			name: "built",
			done: tui.MsgTaskComplete{Name: "compile", At: start.Add(2 * time.Second), Result: &domain.IncrementalResult{
				Changes: []domain.Change{{Path: "/p/out", Type: domain.ChangeCreated}},
			}},
			want:    tui.StatusBuilt,
			changes: 1,
		},
		{
			name: "up-to-date",
			done: tui.MsgTaskComplete{Name: "compile", At: start.Add(2 * time.Second), Result: &domain.IncrementalResult{
				UpToDate: true,
			}},
			want: tui.StatusUpToDate,
		},
		{
			name: "failed",
			done: tui.MsgTaskComplete{Name: "compile", At: start.Add(2 * time.Second), Err: errors.New("exit status 2")},
			want: tui.StatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := plannedModel(t, "generate", "compile")

			update(t, m, tui.MsgTaskStart{Name: "compile", At: start})
			assert.Equal(t, tui.StatusRunning, m.Tasks[1].Status)
			assert.Equal(t, 1, m.SelectedIdx, "follow mode selects the started task")

			update(t, m, tui.MsgTaskLog{Name: "compile", Data: []byte("compiling\r\n")})
			assert.Contains(t, m.Tasks[1].Term.View(), "compiling")

			update(t, m, tt.done)
			assert.Equal(t, tt.want, m.Tasks[1].Status)
			assert.Equal(t, 2*time.Second, m.Tasks[1].Elapsed)
			assert.Len(t, m.Tasks[1].Changes, tt.changes)
			if tt.done.Err != nil {
				assert.Contains(t, m.Tasks[1].Term.View(), "exit status 2")
			}
		})
	}
}

func TestModel_UnknownTaskIsIgnored(t *testing.T) {
	m := plannedModel(t, "compile")

	update(t, m, tui.MsgTaskStart{Name: "other", At: time.Now()})
	update(t, m, tui.MsgTaskLog{Name: "other", Data: []byte("x")})
	update(t, m, tui.MsgTaskComplete{Name: "other", At: time.Now()})

	assert.Equal(t, tui.StatusPending, m.Tasks[0].Status)
}

func TestModel_Status(t *testing.T) {
	m := plannedModel(t, "generate", "compile")

	update(t, m, tui.MsgTaskStatus{Name: "generate", UpToDate: true})
	update(t, m, tui.MsgTaskStatus{Name: "compile", Reason: "input files changed"})

	assert.Equal(t, tui.StatusUpToDate, m.Tasks[0].Status)
	assert.Equal(t, tui.StatusPending, m.Tasks[1].Status)
	assert.Equal(t, "input files changed", m.Tasks[1].Reason)
}

func TestModel_Navigation(t *testing.T) {
	m := plannedModel(t, "a", "b", "c")

	update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.SelectedIdx)
	assert.False(t, m.FollowMode)

	update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 2, m.SelectedIdx, "selection stops at the last task")

	update(t, m, tui.MsgTaskStart{Name: "a", At: time.Now()})
	assert.Equal(t, 2, m.SelectedIdx, "manual selection is kept")

	update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.FollowMode)
	assert.Equal(t, 0, m.SelectedIdx, "esc jumps to the running task")

	update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.SelectedIdx)
}

func TestModel_ScrollKeysMoveTheSelectedOutput(t *testing.T) {
	m := plannedModel(t, "compile")
	term := m.Tasks[0].Term
	for range 50 {
		update(t, m, tui.MsgTaskLog{Name: "compile", Data: []byte("line\r\n")})
	}
	require.Positive(t, term.MaxOffset())

	update(t, m, tea.KeyMsg{Type: tea.KeyHome})
	assert.Equal(t, 0, term.Offset)

	update(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, min(term.Page(), term.MaxOffset()), term.Offset)

	update(t, m, tea.KeyMsg{Type: tea.KeyEnd})
	assert.Equal(t, term.MaxOffset(), term.Offset)
}

func TestModel_QuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		m := plannedModel(t, "compile")
		cmd := update(t, m, key)
		require.NotNil(t, cmd, key.String())
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}
