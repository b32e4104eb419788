package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/umeshrajanna/deepship-api/pkg/tui/theme"
)

func (m StatusModel) View() string {
	// Hide the entire status bar when not active
	if !m.isActive || m.width == 0 {
		return ""
	}

	components := []string{m.spinner.View()}

	if name := m.state.DisplayName(); name != "" {
		components = append(components, lipgloss.NewStyle().Foreground(theme.ColorBase05).Render(name))
	}

	if m.timer > 0 {
		minutes := int(m.timer.Minutes())
		seconds := int(m.timer.Seconds()) % 60
		components = append(components, lipgloss.NewStyle().Foreground(theme.ColorBase04).Render(fmt.Sprintf("%02d:%02d", minutes, seconds)))
	}

	if icon := m.state.Icon(); icon != "" {
		components = append(components, lipgloss.NewStyle().Foreground(theme.ColorOrange).Render(icon))
	}

	if m.steps > 0 {
		components = append(components, lipgloss.NewStyle().Foreground(theme.ColorBase04).Render(fmt.Sprintf("%d steps", m.steps)))
	}

	separator := lipgloss.NewStyle().Foreground(theme.ColorBase03).Render(" | ")
	return lipgloss.NewStyle().
		Width(m.width).
		Background(theme.ColorBase01).
		Padding(0, 1).
		Render(strings.Join(components, separator))
}
