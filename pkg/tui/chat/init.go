package chat

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.refreshPanelCmd()}
	if id := m.session.ConversationID(); id != "" {
		cmds = append(cmds, m.loadHistoryCmd(id))
	}
	return tea.Batch(cmds...)
}
