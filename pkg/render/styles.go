package render

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used for each markdown element
type Styles struct {
	Heading    []lipgloss.Style // indexed by level-1
	Bold       lipgloss.Style
	Italic     lipgloss.Style
	Strike     lipgloss.Style
	InlineCode lipgloss.Style
	CodeBlock  lipgloss.Style
	CodeLabel  lipgloss.Style
	Link       lipgloss.Style
	Quote      lipgloss.Style
	Rule       lipgloss.Style
	TableEdge  lipgloss.Style
	Bullet     lipgloss.Style
}

// DefaultStyles is the terminal theme
func DefaultStyles() Styles {
	base := lipgloss.NewStyle().Bold(true)
	return Styles{
		Heading: []lipgloss.Style{
			base.Foreground(lipgloss.Color("#FF6347")).Underline(true),
			base.Foreground(lipgloss.Color("#FFA500")),
			base.Foreground(lipgloss.Color("#FFD700")),
			base.Foreground(lipgloss.Color("#FFFF99")),
		},
		Bold:   lipgloss.NewStyle().Bold(true),
		Italic: lipgloss.NewStyle().Italic(true),
		Strike: lipgloss.NewStyle().Strikethrough(true),
		InlineCode: lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FFB000")), // Amber
		CodeBlock: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#FFD700")).
			Padding(0, 1),
		CodeLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true),
		Link:      lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF")).Underline(true),
		Quote:     lipgloss.NewStyle().Foreground(lipgloss.Color("#A9A9A9")),
		Rule:      lipgloss.NewStyle().Foreground(lipgloss.Color("#555555")),
		TableEdge: lipgloss.NewStyle().Foreground(lipgloss.Color("#555555")),
		Bullet:    lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")), // Pale green
	}
}

func (s Styles) heading(level int) lipgloss.Style {
	if len(s.Heading) == 0 {
		return s.Bold
	}
	if level < 1 {
		level = 1
	}
	if level > len(s.Heading) {
		level = len(s.Heading)
	}
	return s.Heading[level-1]
}
