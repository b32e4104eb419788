package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	panelWidth     = 32
	minPanelScreen = 80
	maxInputHeight = 10
	// status line, mode line and the input border
	chromeHeight = 4
)

// calculateTextAreaHeight determines the visual height of the textarea
// based on its content and wrapping
func (m *Model) calculateTextAreaHeight() int {
	content := m.textarea.Value()
	if content == "" {
		return 1
	}

	textWidth := m.textarea.Width()
	if textWidth <= 0 {
		textWidth = max(m.width-4, 20)
	}

	total := 0
	for _, line := range strings.Split(content, "\n") {
		w := lipgloss.Width(line)
		total += max((w+textWidth-1)/textWidth, 1)
	}
	return min(max(total, 1), maxInputHeight)
}

// showPanel reports whether the conversations panel fits on screen
func (m *Model) showPanel() bool {
	return !m.panel.Collapsed() && m.width >= minPanelScreen
}

func (m *Model) mainWidth() int {
	if m.showPanel() {
		return m.width - panelWidth
	}
	return m.width
}

// resizeInput recomputes the input height and gives the rest to the viewport
func (m *Model) resizeInput() {
	h := m.calculateTextAreaHeight()
	if m.textarea.Height() != h {
		m.textarea.SetHeight(h)
	}
	if m.height > 0 {
		m.viewport.Height = max(m.height-h-chromeHeight, 3)
	}
}

// handleWindowResize updates all dimensions when window size changes
func (m *Model) handleWindowResize(width, height int) {
	m.width = width
	m.height = height

	mainWidth := m.mainWidth()
	m.textarea.SetWidth(max(mainWidth-2, 10))
	m.viewport.Width = mainWidth
	m.resizeInput()

	m.statusBar, _ = m.statusBar.Update(tea.WindowSizeMsg{Width: mainWidth})
	m.updateViewportContent()
}

// updateViewportContent re-renders the message list into the viewport,
// keeping the user's scroll position unless the list follows new content
func (m *Model) updateViewportContent() {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	m.viewport.SetContent(m.list.View(width))
	if m.list.Follow() {
		m.viewport.GotoBottom()
		return
	}
	m.viewport.SetYOffset(m.list.Offset())
}
