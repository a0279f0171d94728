package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/incr/internal/ui/style"
)

const white = lipgloss.Color("#FFFFFF")

var (
	pendingStyle  = lipgloss.NewStyle().Foreground(style.Slate)
	runningStyle  = lipgloss.NewStyle().Foreground(style.Iris).Bold(true)
	builtStyle    = lipgloss.NewStyle().Foreground(style.Green)
	upToDateStyle = lipgloss.NewStyle().Foreground(style.Slate).Faint(true)
	failedStyle   = lipgloss.NewStyle().Foreground(style.Red)
	selectedStyle = lipgloss.NewStyle().Foreground(style.Iris).Bold(true)
	detailStyle   = lipgloss.NewStyle().Foreground(style.Slate)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Iris).
			Foreground(white)

	failureTitleStyle = titleStyle.Background(style.Red)

	listStyle = lipgloss.NewStyle().MarginRight(1)
	logStyle  = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(style.Slate).
			PaddingLeft(1)
)
