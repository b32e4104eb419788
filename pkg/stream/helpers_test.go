package stream_test

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/umeshrajanna/deepship-api/pkg/chat"
	"github.com/umeshrajanna/deepship-api/pkg/stream"
)

// recordingSink captures every sink call
type recordingSink struct {
	mu        sync.Mutex
	steps     []chat.ReasoningStep
	sources   []chat.SourceRef
	renders   []string
	completed bool
	failed    string
	abandoned bool
}

func (r *recordingSink) AddReasoning(step chat.ReasoningStep) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

func (r *recordingSink) SetSources(sources []chat.SourceRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = sources
}

func (r *recordingSink) SetContent(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders = append(r.renders, text)
}

func (r *recordingSink) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = true
}

func (r *recordingSink) Fail(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = message
}

func (r *recordingSink) Abandon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.abandoned = true
}

func (r *recordingSink) content() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.renders) == 0 {
		return ""
	}
	return r.renders[len(r.renders)-1]
}

func (r *recordingSink) finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed || r.failed != "" || r.abandoned
}

// fakeList is a message list whose assistant entries are recordingSinks
type fakeList struct {
	mu    sync.Mutex
	users []string
	files [][]string
	sinks []*recordingSink
}

func (l *fakeList) HasInProgress() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.sinks {
		if !s.finished() {
			return true
		}
	}
	return false
}

func (l *fakeList) AppendUser(text string, attachments []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users = append(l.users, text)
	l.files = append(l.files, attachments)
}

func (l *fakeList) AppendAssistant() stream.Sink {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := &recordingSink{}
	l.sinks = append(l.sinks, s)
	return s
}

func (l *fakeList) placeholders() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sinks)
}

// fakeOpener serves a canned body
type fakeOpener struct {
	mu                 sync.Mutex
	body               io.Reader
	err                error
	calls              int
	last               stream.Request
	placeholdersAtOpen int
	list               *fakeList
}

func (o *fakeOpener) Open(_ context.Context, req stream.Request) (io.ReadCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	o.last = req
	if o.list != nil {
		o.placeholdersAtOpen = o.list.placeholders()
	}
	if o.err != nil {
		return nil, o.err
	}
	return io.NopCloser(o.body), nil
}

func lines(frames ...string) string {
	return strings.Join(frames, "\n") + "\n"
}

// tracker is an in-memory ConversationTracker
type tracker struct {
	mu sync.Mutex
	id string
}

func (t *tracker) ConversationID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

func (t *tracker) SetConversationID(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.id = id
	return nil
}
