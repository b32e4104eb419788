package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/umeshrajanna/deepship-api/pkg/view"
)

const panelBusyWarning = "Finish or stop the current response first."

func handleKeyMsg(m *Model, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		// ctrl+c stops the active response; a second press quits
		if m.streaming() {
			m.streamCancel()
			return m, nil
		}
		m.Close()
		return m, tea.Quit
	case "esc":
		if kind, _ := m.prompts.Active(); kind != view.PromptNone {
			m.prompts.Dismiss()
			return m, nil
		}
		if m.focus == focusPanel {
			m.setFocus(focusInput)
		}
		return m, nil
	case "tab":
		if m.focus == focusInput && !m.panel.Collapsed() {
			m.setFocus(focusPanel)
		} else {
			m.setFocus(focusInput)
		}
		return m, nil
	case "ctrl+p":
		m.togglePanel()
		return m, nil
	case "ctrl+n":
		m.newChat()
		return m, nil
	case "ctrl+o":
		m.cycleMode()
		return m, nil
	case "ctrl+r":
		m.toggleReasoning()
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.trackScroll()
		return m, cmd
	}

	if m.focus == focusPanel {
		return m, handlePanelKey(m, msg)
	}

	if msg.Type == tea.KeyEnter && !msg.Alt {
		raw := m.textarea.Value()
		if cmd, handled := m.executeSlashCommand(raw); handled {
			m.textarea.Reset()
			m.resizeInput()
			return m, cmd
		}
		return m, m.submit(raw)
	}

	// Let the textarea handle the key
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.resizeInput()
	return m, cmd
}

func handlePanelKey(m *Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		m.panel.MoveCursor(m.ctx, -1)
	case "down", "j":
		m.panel.MoveCursor(m.ctx, 1)
	case "enter":
		if m.streaming() {
			m.notices.Warn(panelBusyWarning)
			return nil
		}
		if c, ok := m.panel.Selected(m.ctx); ok {
			return m.loadHistoryCmd(c.ID)
		}
	case "d", "delete":
		if m.streaming() {
			m.notices.Warn(panelBusyWarning)
			return nil
		}
		if c, ok := m.panel.Selected(m.ctx); ok {
			return m.deleteConversationCmd(c.ID)
		}
	case "r":
		return m.refreshPanelCmd()
	}
	return nil
}

// trackScroll keeps the list's follow flag in step with the viewport
func (m *Model) trackScroll() {
	if m.viewport.AtBottom() {
		m.list.SetFollow(true)
		return
	}
	m.list.SetOffset(m.viewport.YOffset)
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusInput {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}
}
