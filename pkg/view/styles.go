package view

import "github.com/charmbracelet/lipgloss"

var (
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFB000"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF87"))
	dimStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("#A9A9A9"))
	errorStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6347"))
	warnStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	reasoningStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#555555")).Foreground(lipgloss.Color("#888888")).Padding(0, 1)
	sourceIndexStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF"))
	promptStyle         = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#FFA500")).Padding(0, 2)
	groupStyle          = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#AFAFAF"))
	activeStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C00")).Bold(true)
	cursorStyle         = lipgloss.NewStyle().Background(lipgloss.Color("#404040"))
)
