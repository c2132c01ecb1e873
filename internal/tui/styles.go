package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	primaryColor = lipgloss.Color("#7C3AED")
	upColor      = lipgloss.Color("#10B981")
	downColor    = lipgloss.Color("#EF4444")
	accentColor  = lipgloss.Color("#F59E0B")
	borderColor  = lipgloss.Color("#374151")
	textColor    = lipgloss.Color("#F9FAFB")
	mutedColor   = lipgloss.Color("#6B7280")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	focusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(primaryColor).
				Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Foreground(mutedColor)
	valueStyle = lipgloss.NewStyle().Foreground(textColor).Bold(true)

	upStyle   = lipgloss.NewStyle().Bold(true).Foreground(upColor)
	downStyle = lipgloss.NewStyle().Bold(true).Foreground(downColor)

	chartStyle = lipgloss.NewStyle().Foreground(accentColor)

	statusOKStyle   = lipgloss.NewStyle().Foreground(upColor)
	statusWarnStyle = lipgloss.NewStyle().Foreground(downColor)
)
