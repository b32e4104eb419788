package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/umeshrajanna/deepship-api/pkg/chat"
	"github.com/umeshrajanna/deepship-api/pkg/stream"
	"github.com/umeshrajanna/deepship-api/pkg/tui/chat/status"
)

const helpText = "enter send · ctrl+o mode · ctrl+p panel · tab focus · ctrl+n new · ctrl+r reasoning · /help"

const slashHelp = "/new  /mode normal|deep|lab  /attach <path>  /detach <name>  /panel  /collapse <group>  /reasoning  /quit"

// submit starts a send for the input text. The guard in the sender is
// authoritative; the check here only keeps the typed text on refusal.
func (m *Model) submit(text string) tea.Cmd {
	if m.list.HasInProgress() || m.streaming() {
		m.notices.Warn(stream.StreamActiveWarning)
		return nil
	}
	if strings.TrimSpace(text) == "" && m.sender.Attachments().Len() == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.streamCancel = cancel
	m.textarea.Reset()
	m.resizeInput()
	m.list.SetFollow(true)

	var statusCmd tea.Cmd
	m.statusBar, statusCmd = m.statusBar.Update(status.StartStreamingMsg{State: status.StateSending})
	return tea.Batch(m.sendCmd(ctx, text, m.session.Mode()), statusCmd)
}

func (m *Model) sendCmd(ctx context.Context, text string, mode chat.Mode) tea.Cmd {
	return func() tea.Msg {
		d, err := m.sender.Send(ctx, m.list, text, mode)
		return sendDoneMsg{dispatcher: d, err: err}
	}
}

func (m *Model) loadHistoryCmd(conversationID string) tea.Cmd {
	if m.opts.Backend == nil {
		return nil
	}
	ctx, backend := m.ctx, m.opts.Backend
	return func() tea.Msg {
		messages, err := backend.Messages(ctx, conversationID)
		return historyLoadedMsg{conversationID: conversationID, messages: messages, err: err}
	}
}

func (m *Model) deleteConversationCmd(conversationID string) tea.Cmd {
	if m.opts.Backend == nil {
		return nil
	}
	ctx, backend := m.ctx, m.opts.Backend
	return func() tea.Msg {
		err := backend.DeleteConversation(ctx, conversationID)
		return conversationDeletedMsg{conversationID: conversationID, err: err}
	}
}

func (m *Model) refreshPanelCmd() tea.Cmd {
	if m.opts.Backend == nil {
		return nil
	}
	ctx, backend, panel := m.ctx, m.opts.Backend, m.panel
	activeID := m.session.ConversationID()
	return func() tea.Msg {
		return panelRefreshedMsg{err: panel.Refresh(ctx, backend, activeID)}
	}
}

// newChat clears the view and the active conversation
func (m *Model) newChat() {
	if m.streaming() {
		m.notices.Warn(stream.StreamActiveWarning)
		return
	}
	if err := m.session.NewChat(m.ctx); err != nil {
		m.notices.Error(err.Error())
		return
	}
	m.list.Clear()
	m.panel.SetActive("")
	m.prompts.Dismiss()
	m.updateViewportContent()
}

// cycleMode moves to the next search mode and persists it
func (m *Model) cycleMode() {
	next := nextMode(m.session.Mode())
	m.setMode(next)
}

func (m *Model) setMode(mode chat.Mode) {
	if err := m.session.SetMode(m.ctx, mode); err != nil {
		m.notices.Error(err.Error())
		return
	}
	m.notices.Info("Mode: " + mode.String())
}

func nextMode(mode chat.Mode) chat.Mode {
	switch mode {
	case chat.ModeNormal, "":
		return chat.ModeDeep
	case chat.ModeDeep:
		return chat.ModeLab
	default:
		return chat.ModeNormal
	}
}

// attach queues a file for the next send
func (m *Model) attach(path string) {
	a, err := stream.LoadAttachment(path, m.opts.MaxFileSize)
	if err == nil {
		err = m.sender.Attachments().Add(a)
	}
	if err != nil {
		m.notices.Error(err.Error())
		return
	}
	m.notices.Info("Attached " + a.Name)
}

func (m *Model) toggleReasoning() {
	if msg, ok := m.list.LastAssistant(); ok {
		msg.ToggleReasoning()
		m.updateViewportContent()
	}
}

func (m *Model) togglePanel() {
	if err := m.panel.TogglePanel(m.ctx); err != nil {
		m.notices.Error(err.Error())
		return
	}
	if m.panel.Collapsed() {
		m.setFocus(focusInput)
	}
	m.handleWindowResize(m.width, m.height)
}

// executeSlashCommand handles /commands typed in the input
func (m *Model) executeSlashCommand(raw string) (tea.Cmd, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "/") {
		return nil, false
	}

	command, args, _ := strings.Cut(trimmed, " ")
	args = strings.TrimSpace(args)

	switch command {
	case "/new":
		m.newChat()
	case "/mode":
		if args == "" {
			m.notices.Info("Mode: " + m.session.Mode().String())
			break
		}
		mode, err := chat.ParseMode(args)
		if err != nil {
			m.notices.Error(err.Error())
			break
		}
		m.setMode(mode)
	case "/attach":
		if args == "" {
			m.notices.Error("/attach requires a file path")
			break
		}
		m.attach(args)
	case "/detach":
		if !m.sender.Attachments().Remove(args) {
			m.notices.Error(fmt.Sprintf("no attachment named %q", args))
		}
	case "/panel":
		m.togglePanel()
	case "/collapse":
		if err := m.panel.ToggleGroup(m.ctx, args); err != nil {
			m.notices.Error(err.Error())
		}
	case "/reasoning":
		m.toggleReasoning()
	case "/quit":
		m.Close()
		return tea.Quit, true
	case "/help":
		m.notices.Info(slashHelp)
	default:
		m.notices.Error(fmt.Sprintf("unknown command: %s", command))
	}
	return nil, true
}

// sendOutcome reports how a finished send ended
func (m *Model) sendOutcome(err error) {
	switch {
	case err == nil:
	case errors.Is(err, stream.ErrStreamActive), errors.Is(err, stream.ErrEmptyMessage):
	case errors.Is(err, context.Canceled):
		m.notices.Info("Response stopped.")
	default:
		m.log.Warn("send failed", "error", err)
		if n := m.sender.Attachments().Len(); n > 0 {
			m.notices.Warn(fmt.Sprintf("Send failed; %d attachment(s) kept for retry", n))
		}
	}
}
