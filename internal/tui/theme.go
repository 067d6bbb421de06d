package tui

import "github.com/charmbracelet/lipgloss"

// Palette mirrors the DevMemory dashboard: slate background tones with a
// cyan-to-blue accent.
const (
	colorFgMuted   = "#94A3B8" // Slate 400
	colorAccent    = "#06B6D4" // Cyan 500
	colorPrimary   = "#3B82F6" // Blue 500
	colorSuccess   = "#10B981" // Emerald 500
	colorWarning   = "#F59E0B" // Amber 500
	colorError     = "#EF4444" // Red 500
	colorBorder    = "#334155" // Slate 700
	colorUserMsg   = "#60A5FA" // Blue 400
	colorAssistMsg = "#10B981" // Emerald 500
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorAccent))

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFgMuted)).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorAccent)).
			Padding(0, 1).
			Underline(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFgMuted))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorAccent))

	userLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorUserMsg))

	assistantLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(colorAssistMsg))

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorBorder)).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFgMuted))

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPrimary))

	markStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorSuccess))

	indexedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorSuccess))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWarning))
)
