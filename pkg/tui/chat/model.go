package chat

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/umeshrajanna/deepship-api/pkg/api"
	"github.com/umeshrajanna/deepship-api/pkg/logger"
	"github.com/umeshrajanna/deepship-api/pkg/render"
	"github.com/umeshrajanna/deepship-api/pkg/session"
	"github.com/umeshrajanna/deepship-api/pkg/stream"
	"github.com/umeshrajanna/deepship-api/pkg/tui/chat/status"
	"github.com/umeshrajanna/deepship-api/pkg/tui/theme"
	"github.com/umeshrajanna/deepship-api/pkg/view"
)

// Backend is the part of the API client the chat screen uses
type Backend interface {
	view.ConversationLister
	Messages(ctx context.Context, conversationID string) ([]api.StoredMessage, error)
	DeleteConversation(ctx context.Context, conversationID string) error
}

// Options wires the chat screen
type Options struct {
	Session      *session.Context
	Backend      Backend
	Opener       stream.Opener
	Renderer     *render.Renderer
	Attachments  *stream.AttachmentQueue
	MaxFileSize  int64
	RefreshDelay time.Duration
	MaxLineBytes int
}

type focusArea int

const (
	focusInput focusArea = iota
	focusPanel
)

// programRef lets sinks created before the program starts wake it later
type programRef struct {
	mu sync.RWMutex
	p  stream.MessageSender
}

func (r *programRef) set(p stream.MessageSender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p
}

func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	p := r.p
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// Model is the interactive chat screen
type Model struct {
	ctx     context.Context
	opts    Options
	session *session.Context
	log     *logger.Logger

	list     *view.MessageList
	panel    *view.ConversationsPanel
	prompts  *view.Prompts
	notices  *view.Notifier
	sender   *stream.Sender
	program  *programRef
	renderer *render.Renderer

	viewport     viewport.Model
	textarea     textarea.Model
	statusBar    status.StatusModel
	styles       *theme.Styles
	focus        focusArea
	streamCancel context.CancelFunc
	width        int
	height       int
}

// NewModel creates the chat screen
func NewModel(ctx context.Context, opts Options) *Model {
	ta := textarea.New()
	ta.Focus()
	ta.Placeholder = "Ask anything... (enter to send, alt+enter for newline)"
	ta.CharLimit = 0
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")

	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.New(render.Options{})
	}
	if opts.Attachments == nil {
		opts.Attachments = stream.NewAttachmentQueue(0)
	}

	m := &Model{
		ctx:       ctx,
		opts:      opts,
		session:   opts.Session,
		log:       logger.WithComponent("tui"),
		list:      view.NewMessageList(renderer),
		panel:     view.NewConversationsPanel(opts.Session),
		prompts:   view.NewPrompts(),
		notices:   view.NewNotifier(view.DefaultNoticeTTL),
		program:   &programRef{},
		renderer:  renderer,
		viewport:  viewport.New(80, 20),
		textarea:  ta,
		statusBar: status.NewStatusModel(),
		styles:    theme.DefaultStyles(),
	}

	m.sender = stream.NewSender(stream.SenderOptions{
		Opener:       opts.Opener,
		Session:      opts.Session,
		Prompter:     m.prompts,
		Notifier:     m.notices,
		Attachments:  opts.Attachments,
		Refresh:      m.refreshConversations,
		RefreshDelay: opts.RefreshDelay,
		MaxLineBytes: opts.MaxLineBytes,
		WrapSink: func(sink stream.Sink) stream.Sink {
			return stream.NewProgramSink(uuid.NewString(), sink, m.program)
		},
	})
	return m
}

// SetProgram connects stream updates to the running program
func (m *Model) SetProgram(p stream.MessageSender) {
	m.program.set(p)
}

// Close stops the active stream and any pending refresh
func (m *Model) Close() {
	if m.streamCancel != nil {
		m.streamCancel()
		m.streamCancel = nil
	}
	m.sender.Close()
}

// refreshConversations is the side-channel refresh; it runs off the UI
// goroutine
func (m *Model) refreshConversations(ctx context.Context, conversationID string) {
	if m.opts.Backend == nil {
		return
	}
	err := m.panel.Refresh(ctx, m.opts.Backend, conversationID)
	if err != nil {
		m.log.Warn("conversation refresh failed", "error", err)
	}
	m.program.Send(panelRefreshedMsg{err: err})
}

func (m *Model) streaming() bool {
	return m.streamCancel != nil
}
