package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/umeshrajanna/deepship-api/pkg/view"
)

func (m *Model) View() string {
	main := m.mainView()
	if !m.showPanel() {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.panelView(), main)
}

func (m *Model) mainView() string {
	width := m.mainWidth()

	body := m.viewport.View()
	if kind, _ := m.prompts.Active(); kind != view.PromptNone {
		body = lipgloss.Place(width, m.viewport.Height, lipgloss.Center, lipgloss.Center, m.prompts.View(width-4))
	}

	statusLine := m.statusBar.View()
	if statusLine == "" {
		statusLine = m.notices.View()
	}

	inputStyle := m.styles.Input
	if m.focus == focusInput {
		inputStyle = m.styles.InputFocused
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		statusLine,
		inputStyle.Render(m.textarea.View()),
		m.modeLine(),
	)
}

func (m *Model) modeLine() string {
	parts := []string{m.styles.ModeBadge.Render(m.session.Mode().String())}
	if names := m.sender.Attachments().Names(); len(names) > 0 {
		parts = append(parts, m.styles.Attachment.Render("📎 "+strings.Join(names, ", ")))
	}
	parts = append(parts, m.styles.Help.Render(helpText))
	return strings.Join(parts, " ")
}

func (m *Model) panelView() string {
	style := m.styles.Panel
	if m.focus == focusPanel {
		style = m.styles.PanelFocused
	}
	inner := panelWidth - 4
	title := m.styles.PanelTitle.Render("Conversations")
	content := lipgloss.JoinVertical(lipgloss.Left, title, m.panel.View(m.ctx, inner))
	return style.Width(inner).Height(max(m.height-2, 1)).Render(content)
}
