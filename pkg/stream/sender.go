package stream

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/umeshrajanna/deepship-api/pkg/chat"
	"github.com/umeshrajanna/deepship-api/pkg/logger"
)

var (
	// ErrStreamActive is returned when a send is attempted while the active
	// message list still has a response in progress.
	ErrStreamActive = errors.New("a response is still streaming")

	ErrEmptyMessage = errors.New("message is empty")
)

// StreamActiveWarning is the notice shown when a send is refused by the guard
const StreamActiveWarning = "Please wait for the current response to finish."

// MessageList is the active view's list of messages
type MessageList interface {
	// HasInProgress reports whether any assistant entry is still streaming.
	HasInProgress() bool
	AppendUser(text string, attachments []string)
	// AppendAssistant adds the in-progress placeholder and returns it.
	AppendAssistant() Sink
}

// Notifier surfaces transient warnings
type Notifier interface {
	Warn(message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(message string)

func (f NotifierFunc) Warn(message string) { f(message) }

// SenderOptions wires a Sender
type SenderOptions struct {
	Opener      Opener
	Session     ConversationTracker
	Prompter    Prompter
	Notifier    Notifier
	Attachments *AttachmentQueue

	// Refresh reloads the conversation list; nil disables the side channel.
	Refresh      func(ctx context.Context, conversationID string)
	RefreshDelay time.Duration

	MaxLineBytes int

	// WrapSink decorates each placeholder sink, e.g. to wake a presenter.
	WrapSink func(Sink) Sink
}

// Sender runs the send operation: guard, placeholder, request, decode loop
// and failure handling.
type Sender struct {
	opts SenderOptions

	mu      sync.Mutex
	pending *Trigger
}

// NewSender creates a sender
func NewSender(opts SenderOptions) *Sender {
	if opts.Attachments == nil {
		opts.Attachments = NewAttachmentQueue(0)
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(string) {})
	}
	return &Sender{opts: opts}
}

// Attachments returns the queue the next send will take files from
func (s *Sender) Attachments() *AttachmentQueue { return s.opts.Attachments }

// Send streams one response into list and blocks until the stream ends.
// The returned dispatcher is nil only when the send was refused.
func (s *Sender) Send(ctx context.Context, list MessageList, text string, mode chat.Mode) (*Dispatcher, error) {
	text = strings.TrimSpace(text)

	d, files, err := s.begin(list, text)
	if err != nil {
		return nil, err
	}

	log := logger.WithComponent("stream").With("stream_id", d.ID())
	log.Info("send", "mode", mode.String(), "files", len(files), "chars", len(text))

	body, err := s.opts.Opener.Open(ctx, Request{
		Content:        text,
		Mode:           mode,
		ConversationID: s.opts.Session.ConversationID(),
		Attachments:    files,
	})
	if err != nil {
		d.TransportFailed(err)
		s.opts.Attachments.Restore(files)
		return d, err
	}
	defer body.Close()

	err = ReadFrames(ctx, body, NewDecoder(s.opts.MaxLineBytes), func(f Frame) bool {
		return d.Dispatch(ctx, f)
	})
	if err != nil {
		d.TransportFailed(err)
		s.opts.Attachments.Restore(files)
		return d, err
	}

	d.EndOfStream(ctx)
	log.Info("stream finished", "state", d.State().String(), "steps", d.Steps(), "sources", len(d.Sources()))
	return d, nil
}

// begin performs the guard and the optimistic UI updates atomically so two
// sends cannot both pass the in-progress check.
func (s *Sender) begin(list MessageList, text string) (*Dispatcher, []Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if list.HasInProgress() {
		s.opts.Notifier.Warn(StreamActiveWarning)
		return nil, nil, ErrStreamActive
	}

	files := s.opts.Attachments.Take()
	if text == "" && len(files) == 0 {
		return nil, nil, ErrEmptyMessage
	}

	// A refresh still pending from the previous stream would reconcile
	// against a list this send is about to change.
	if s.pending != nil {
		s.pending.Cancel()
		s.pending = nil
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	list.AppendUser(text, names)

	sink := list.AppendAssistant()
	if s.opts.WrapSink != nil {
		sink = s.opts.WrapSink(sink)
	}

	var trigger *Trigger
	if s.opts.Refresh != nil {
		session, refresh := s.opts.Session, s.opts.Refresh
		trigger = NewTrigger(s.opts.RefreshDelay, func(ctx context.Context) {
			refresh(ctx, session.ConversationID())
		})
		s.pending = trigger
	}

	return NewDispatcher(sink, s.opts.Session, s.opts.Prompter, trigger), files, nil
}

// Close cancels any pending refresh
func (s *Sender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.pending.Cancel()
		s.pending = nil
	}
}
