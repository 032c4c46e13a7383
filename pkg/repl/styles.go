package repl

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("#8B5CF6")
	ColorSuccess = lipgloss.Color("#10B981")
	ColorError   = lipgloss.Color("#EF4444")
	ColorMuted   = lipgloss.Color("#6B7280")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	ResultStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	AsmStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(ColorMuted).
			PaddingLeft(1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)
