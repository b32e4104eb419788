package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/umeshrajanna/deepship-api/pkg/stream"
	"github.com/umeshrajanna/deepship-api/pkg/tui/chat/status"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowResize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		// All key handling happens in handleKeyMsg
		return handleKeyMsg(m, msg)

	case stream.UpdateMsg:
		m.syncStatus()
		m.updateViewportContent()
		return m, nil

	case stream.FinishedMsg:
		m.updateViewportContent()
		return m, nil

	case sendDoneMsg:
		if m.streamCancel != nil {
			m.streamCancel()
			m.streamCancel = nil
		}
		m.statusBar, _ = m.statusBar.Update(status.StopStreamingMsg{})
		m.sendOutcome(msg.err)
		m.panel.SetActive(m.session.ConversationID())
		m.updateViewportContent()
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.notices.Error(msg.err.Error())
			return m, nil
		}
		if err := m.session.SetConversationID(m.ctx, msg.conversationID); err != nil {
			m.notices.Error(err.Error())
			return m, nil
		}
		m.list.Load(msg.messages)
		m.panel.SetActive(msg.conversationID)
		m.prompts.Dismiss()
		m.setFocus(focusInput)
		m.updateViewportContent()
		return m, nil

	case conversationDeletedMsg:
		if msg.err != nil {
			m.notices.Error(msg.err.Error())
			return m, nil
		}
		wasActive := m.session.ConversationID() == msg.conversationID
		if err := m.session.ConversationDeleted(m.ctx, msg.conversationID); err != nil {
			m.notices.Error(err.Error())
		}
		m.panel.Remove(msg.conversationID)
		if wasActive {
			m.list.Clear()
			m.updateViewportContent()
		}
		m.notices.Info("Conversation deleted")
		return m, nil

	case panelRefreshedMsg:
		if msg.err != nil {
			m.notices.Error(msg.err.Error())
		}
		return m, nil

	case spinner.TickMsg, status.TickMsg:
		var cmd tea.Cmd
		m.statusBar, cmd = m.statusBar.Update(msg)
		if m.streaming() {
			m.updateViewportContent()
		}
		return m, cmd
	}

	var tiCmd tea.Cmd
	m.textarea, tiCmd = m.textarea.Update(msg)
	cmds = append(cmds, tiCmd)

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

// syncStatus moves the status bar to the phase the streaming message is in
func (m *Model) syncStatus() {
	msg, ok := m.list.LastAssistant()
	if !ok || !msg.InProgress() {
		return
	}
	state := status.StateThinking
	if msg.Text() != "" {
		state = status.StateReceiving
	}
	m.statusBar, _ = m.statusBar.Update(status.SetProcessStateMsg{State: state})
	m.statusBar, _ = m.statusBar.Update(status.SetStepsMsg{Steps: len(msg.Steps())})
}
