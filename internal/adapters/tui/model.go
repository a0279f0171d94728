// Package tui shows a run as an interactive task list next to the output of the selected task.
package tui

import (
	"io"
	"os"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/incr/internal/ui/output"
)

const (
	listWidthRatio = 0.3
	paneChrome     = 4
)

// TaskStatus is the state of a task in the list.
type TaskStatus string

const (
	// StatusPending is a task that has not started.
	StatusPending TaskStatus = "Pending"
	// StatusRunning is a task that is executing.
	StatusRunning TaskStatus = "Running"
	// StatusBuilt is a task whose work ran and succeeded.
	StatusBuilt TaskStatus = "Built"
	// StatusUpToDate is a task whose recorded result was reused.
	StatusUpToDate TaskStatus = "UpToDate"
	// StatusFailed is a task that failed.
	StatusFailed TaskStatus = "Failed"
)

// TaskNode is one row of the task list.
type TaskNode struct {
	Name    string
	Target  bool
	Status  TaskStatus
	Term    *Vterm
	Started time.Time
	Elapsed time.Duration
	Changes []domain.Change
	// Reason explains a task that is not up-to-date in a status report.
	Reason string
}

// Model is the bubbletea model of a run.
type Model struct {
	Tasks   []*TaskNode
	TaskMap map[string]*TaskNode

	SelectedIdx int
	ListOffset  int
	ListHeight  int
	LogWidth    int
	LogHeight   int
	// FollowMode moves the selection to every task that starts.
	FollowMode bool

	Output *termenv.Output
}

// NewModel creates a model that draws to w, or to stderr when w is nil.
func NewModel(w io.Writer) *Model {
	if w == nil {
		w = os.Stderr
	}
	out := output.New(w)
	lipgloss.SetColorProfile(out.Profile)

	return &Model{
		TaskMap:    make(map[string]*TaskNode),
		FollowMode: true,
		Output:     out,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
//
//nolint:cyclop // one case per message type
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.onKey(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case MsgPlan:
		m.plan(msg.Tasks, msg.Targets)
	case MsgTaskStart:
		if node := m.task(msg.Name); node != nil {
			node.Status = StatusRunning
			node.Started = msg.At
			if m.FollowMode {
				m.selectTask(msg.Name)
			}
		}
	case MsgTaskLog:
		if node := m.task(msg.Name); node != nil {
			_, _ = node.Term.Write(msg.Data)
		}
	case MsgTaskComplete:
		if node := m.task(msg.Name); node != nil {
			m.complete(node, msg)
		}
	case MsgTaskStatus:
		if node := m.task(msg.Name); node != nil {
			node.Status = StatusPending
			node.Reason = msg.Reason
			if msg.UpToDate {
				node.Status = StatusUpToDate
			}
		}
	}
	return m, nil
}

func (m *Model) onKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "k", "up":
		m.moveSelection(-1)
	case "j", "down":
		m.moveSelection(1)
	case "esc":
		m.FollowMode = true
		if i := slices.IndexFunc(m.Tasks, func(n *TaskNode) bool { return n.Status == StatusRunning }); i >= 0 {
			m.SelectedIdx = i
			m.ensureVisible()
		}
	case "pgup":
		if node := m.selected(); node != nil {
			node.Term.Scroll(-node.Term.Page())
		}
	case "pgdown":
		if node := m.selected(); node != nil {
			node.Term.Scroll(node.Term.Page())
		}
	case "home", "end":
		if node := m.selected(); node != nil {
			node.Term.ScrollTo(msg.String() == "end")
		}
	}
	return nil
}

func (m *Model) plan(tasks, targets []string) {
	m.Tasks = make([]*TaskNode, len(tasks))
	m.TaskMap = make(map[string]*TaskNode, len(tasks))
	m.SelectedIdx, m.ListOffset = 0, 0
	for i, name := range tasks {
		term := NewVterm()
		if m.LogWidth > 0 && m.LogHeight > 0 {
			term.Resize(m.LogWidth, m.LogHeight)
		}
		m.Tasks[i] = &TaskNode{
			Name:   name,
			Target: slices.Contains(targets, name),
			Status: StatusPending,
			Term:   term,
		}
		m.TaskMap[name] = m.Tasks[i]
	}
}

func (m *Model) complete(node *TaskNode, msg MsgTaskComplete) {
	if !node.Started.IsZero() {
		node.Elapsed = msg.At.Sub(node.Started)
	}
	switch {
	case msg.Err != nil:
		node.Status = StatusFailed
		_, _ = node.Term.Write([]byte("\r\n" + msg.Err.Error() + "\r\n"))
	case msg.Result != nil && msg.Result.UpToDate:
		node.Status = StatusUpToDate
	default:
		node.Status = StatusBuilt
		if msg.Result != nil {
			node.Changes = msg.Result.Changes
		}
	}
}

func (m *Model) resize(width, height int) {
	listWidth := int(float64(width) * listWidthRatio)
	m.LogWidth = width - listWidth - paneChrome
	m.LogHeight = height - lipgloss.Height(titleStyle.Render("OUTPUT"))
	m.ListHeight = height - lipgloss.Height(titleStyle.Render("TASKS")+"\n\n")
	m.ensureVisible()

	for _, node := range m.Tasks {
		node.Term.Resize(m.LogWidth, m.LogHeight)
	}
}

func (m *Model) task(name string) *TaskNode {
	return m.TaskMap[name]
}

func (m *Model) selected() *TaskNode {
	if m.SelectedIdx >= 0 && m.SelectedIdx < len(m.Tasks) {
		return m.Tasks[m.SelectedIdx]
	}
	return nil
}

func (m *Model) selectTask(name string) {
	if i := slices.IndexFunc(m.Tasks, func(n *TaskNode) bool { return n.Name == name }); i >= 0 {
		m.SelectedIdx = i
		m.ensureVisible()
	}
}

// moveSelection leaves follow mode, since the user picked a task to look at.
func (m *Model) moveSelection(delta int) {
	next := m.SelectedIdx + delta
	if next < 0 || next >= len(m.Tasks) {
		return
	}
	m.SelectedIdx = next
	m.FollowMode = false
	m.ensureVisible()
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	switch {
	case m.SelectedIdx < m.ListOffset:
		m.ListOffset = m.SelectedIdx
	case m.SelectedIdx >= m.ListOffset+m.ListHeight:
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}
