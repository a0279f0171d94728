// Package style provides shared UI styling primitives including brand colors
// and icons for consistent visual presentation across the CLI.
package style

import "github.com/charmbracelet/lipgloss"

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Dot     = "●"
	Circle  = "○"
)

// Text styles used for task status lines.
var (
	UpToDate = lipgloss.NewStyle().Foreground(Slate)
	Built    = lipgloss.NewStyle().Foreground(Green).Bold(true)
	Failed   = lipgloss.NewStyle().Foreground(Red).Bold(true)
	Created  = lipgloss.NewStyle().Foreground(Green)
	Modified = lipgloss.NewStyle().Foreground(Yellow)
	Deleted  = lipgloss.NewStyle().Foreground(Red)
	Accent   = lipgloss.NewStyle().Foreground(Iris)
)
