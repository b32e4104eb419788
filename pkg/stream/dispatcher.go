package stream

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/umeshrajanna/deepship-api/pkg/api"
	"github.com/umeshrajanna/deepship-api/pkg/chat"
	"github.com/umeshrajanna/deepship-api/pkg/logger"
)

const (
	connectionErrorMessage = "Connection error. Please check your connection and try again."
	stoppedMessage         = "Response stopped."
	genericErrorMessage    = "Something went wrong while generating the response."
)

// Dispatcher routes the frames of one stream to its sink. It owns the
// per-stream state: accumulated text, deduplicated sources and the refresh
// latch (held by the Trigger).
type Dispatcher struct {
	mu       sync.Mutex
	id       string
	state    State
	sink     Sink
	session  ConversationTracker
	prompter Prompter
	refresh  *Trigger

	text      strings.Builder
	sources   chat.SourceSet
	steps     int
	ignored   int
	lastError string

	log *logger.Logger
}

// NewDispatcher creates a dispatcher for one stream. prompter and refresh
// may be nil.
func NewDispatcher(sink Sink, session ConversationTracker, prompter Prompter, refresh *Trigger) *Dispatcher {
	id := uuid.NewString()
	return &Dispatcher{
		id:       id,
		state:    StateAwaitingFirstFrame,
		sink:     sink,
		session:  session,
		prompter: prompter,
		refresh:  refresh,
		log:      logger.WithComponent("stream").With("stream_id", id),
	}
}

// ID identifies the stream in logs and UI messages
func (d *Dispatcher) ID() string { return d.id }

// Dispatch applies one frame. It returns false once the stream is
// terminated and the read loop should stop.
func (d *Dispatcher) Dispatch(ctx context.Context, f Frame) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateTerminated {
		d.ignored++
		return false
	}
	if !f.Known() {
		d.ignored++
		d.log.Debug("ignoring frame", "type", string(f.Type))
		return true
	}
	if d.state == StateAwaitingFirstFrame {
		d.state = StateStreaming
	}

	switch f.Type {
	case FrameMetadata:
		if f.ConversationID != "" {
			if err := d.session.SetConversationID(ctx, f.ConversationID); err != nil {
				d.log.Warn("failed to persist conversation id", "error", err)
			}
		}
		d.log.Debug("metadata", "conversation_id", f.ConversationID, "deep_search", f.DeepSearch, "lab_mode", f.LabMode)

	case FrameReasoning:
		d.steps++
		d.sink.AddReasoning(f.ReasoningStep())
		if d.sources.Add(f.Sources...) > 0 {
			d.sink.SetSources(d.sources.Items())
		}
		if d.steps == 1 {
			d.maybeRefresh("reasoning")
		}

	case FrameContent:
		d.text.WriteString(f.Text)
		d.sink.SetContent(d.text.String())

	case FrameDone:
		d.state = StateTerminated
		d.sink.Complete()
		d.maybeRefresh("done")
		return false

	case FrameError:
		d.state = StateTerminated
		d.routeError(f)
		return false
	}
	return true
}

// EndOfStream is called when the body reached EOF. A stream that ended
// without done or error is completed with whatever text arrived.
func (d *Dispatcher) EndOfStream(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateTerminated {
		d.log.Debug("stream ended without a terminal frame", "state", d.state.String())
		d.state = StateTerminated
		d.sink.Complete()
	}
	d.maybeRefresh("eof")
}

// TransportFailed finalizes the message after a failed request or read
func (d *Dispatcher) TransportFailed(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateTerminated {
		return
	}
	d.state = StateTerminated

	message := connectionErrorMessage
	var apiErr *api.APIError
	switch {
	case errors.Is(err, context.Canceled):
		message = stoppedMessage
	case errors.As(err, &apiErr) && apiErr.Detail != "":
		message = apiErr.Detail
	}
	d.lastError = message
	d.log.Warn("stream failed", "error", err)
	d.sink.Fail(message)
}

func (d *Dispatcher) routeError(f Frame) {
	message := f.Message
	if message == "" {
		message = genericErrorMessage
	}
	d.lastError = message

	if f.LimitReached && d.prompter != nil {
		d.sink.Abandon()
		if f.UserLimit {
			d.log.Info("usage limit reached", "account", "user")
			d.prompter.ShowUpgrade(message)
		} else {
			d.log.Info("usage limit reached", "account", "anonymous")
			d.prompter.ShowSignIn(message)
		}
		return
	}
	d.sink.Fail(message)
}

// maybeRefresh fires the side-channel refresh when a conversation id is
// known. The Trigger's latch makes repeated calls no-ops.
func (d *Dispatcher) maybeRefresh(reason string) {
	if d.refresh == nil || d.session.ConversationID() == "" {
		return
	}
	if d.refresh.Fire() {
		d.log.Debug("conversation list refresh scheduled", "reason", reason)
	}
}

// State returns the current lifecycle state
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Text returns the accumulated response text
func (d *Dispatcher) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text.String()
}

// Sources returns the deduplicated sources in first-seen order
func (d *Dispatcher) Sources() []chat.SourceRef {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sources.Items()
}

// Steps is the number of reasoning frames applied
func (d *Dispatcher) Steps() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.steps
}

// ErrorMessage is the message shown or prompted for the last failure
func (d *Dispatcher) ErrorMessage() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastError
}
