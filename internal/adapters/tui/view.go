package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/incr/internal/ui/style"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.ListHeight <= 0 {
		return "Waiting for the terminal size..."
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.taskList(), m.logPane())
}

func (m *Model) taskList() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("TASKS") + "\n\n")

	end := min(m.ListOffset+m.ListHeight, len(m.Tasks))
	for i := min(m.ListOffset, end); i < end; i++ {
		b.WriteString(m.row(i, m.Tasks[i]) + "\n")
	}
	return listStyle.Render(b.String())
}

func (m *Model) row(index int, node *TaskNode) string {
	rowStyle := statusStyle(node.Status)
	cursor := "  "
	if index == m.SelectedIdx {
		cursor = selectedStyle.Render("> ")
		if node.Status == StatusPending || node.Status == StatusRunning {
			rowStyle = selectedStyle
		}
	}

	name := node.Name
	if node.Target {
		name += " *"
	}
	line := cursor + rowStyle.Render(statusIcon(node.Status)+" "+name)
	if detail := rowDetail(node); detail != "" {
		line += " " + detailStyle.Render(detail)
	}
	return line
}

func rowDetail(node *TaskNode) string {
	switch node.Status {
	case StatusBuilt:
		detail := node.Elapsed.Round(time.Millisecond).String()
		if n := len(node.Changes); n > 0 {
			detail += fmt.Sprintf(", %d change(s)", n)
		}
		return detail
	case StatusUpToDate:
		return "up-to-date"
	case StatusPending:
		return node.Reason
	default:
		return ""
	}
}

func statusIcon(status TaskStatus) string {
	switch status {
	case StatusRunning:
		return style.Dot
	case StatusBuilt, StatusUpToDate:
		return style.Check
	case StatusFailed:
		return style.Cross
	default:
		return style.Circle
	}
}

func statusStyle(status TaskStatus) lipgloss.Style {
	switch status {
	case StatusRunning:
		return runningStyle
	case StatusBuilt:
		return builtStyle
	case StatusUpToDate:
		return upToDateStyle
	case StatusFailed:
		return failedStyle
	default:
		return pendingStyle
	}
}

func (m *Model) logPane() string {
	node := m.selected()
	if node == nil {
		return logStyle.Render(titleStyle.Render("OUTPUT (waiting)"))
	}

	mode := "manual"
	if m.FollowMode {
		mode = "following"
	}
	title := titleStyle
	if node.Status == StatusFailed {
		title = failureTitleStyle
	}
	header := title.Render(fmt.Sprintf("OUTPUT: %s (%s)", node.Name, mode))
	return logStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, node.Term.View()))
}
