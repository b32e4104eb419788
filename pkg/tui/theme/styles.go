package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Warm base16 palette
var (
	ColorBase00 = lipgloss.Color("#1a1816") // Dark background
	ColorBase01 = lipgloss.Color("#282420") // Lighter background
	ColorBase02 = lipgloss.Color("#36302a") // Selection background
	ColorBase03 = lipgloss.Color("#5c5044") // Comments, invisibles
	ColorBase04 = lipgloss.Color("#83715f") // Dark foreground
	ColorBase05 = lipgloss.Color("#ab937b") // Default foreground

	ColorRed    = lipgloss.Color("#d95f5f")
	ColorOrange = lipgloss.Color("#eb8755")
	ColorYellow = lipgloss.Color("#f5b761")
	ColorGreen  = lipgloss.Color("#93b56b")
	ColorCyan   = lipgloss.Color("#61afaf")
	ColorViolet = lipgloss.Color("#6c71c4")

	ColorBorder  = ColorBase03
	ColorFocus   = ColorOrange
	ColorError   = ColorRed
	ColorWarning = ColorYellow
	ColorMuted   = ColorBase03
)

// Styles defines the Lipgloss styles for the chat screen
type Styles struct {
	// Layout
	Panel        lipgloss.Style
	PanelFocused lipgloss.Style
	PanelTitle   lipgloss.Style
	Input        lipgloss.Style
	InputFocused lipgloss.Style

	// Status line
	ModeBadge   lipgloss.Style
	Attachment  lipgloss.Style
	Help        lipgloss.Style
	ErrorNotice lipgloss.Style
}

// DefaultStyles returns the default Lipgloss styles
func DefaultStyles() *Styles {
	return &Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1),

		PanelFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorFocus).
			Padding(0, 1),

		PanelTitle: lipgloss.NewStyle().
			Foreground(ColorFocus).
			Bold(true),

		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder),

		InputFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorFocus),

		ModeBadge: lipgloss.NewStyle().
			Foreground(ColorBase00).
			Background(ColorCyan).
			Padding(0, 1),

		Attachment: lipgloss.NewStyle().
			Foreground(ColorYellow),

		Help: lipgloss.NewStyle().
			Foreground(ColorMuted),

		ErrorNotice: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
	}
}
