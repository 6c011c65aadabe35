package cli

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#0EA5E9")
	colorAccent  = lipgloss.Color("#F59E0B")
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	warnStyle    = lipgloss.NewStyle().Foreground(colorAccent)
	// highlight marks the unique transfer code inside an amount.
	highlight = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(colorAccent)
	boxStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)
)
