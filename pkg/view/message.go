package view

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/umeshrajanna/deepship-api/pkg/api"
	"github.com/umeshrajanna/deepship-api/pkg/chat"
	"github.com/umeshrajanna/deepship-api/pkg/render"
	"github.com/umeshrajanna/deepship-api/pkg/stream"
)

// Status of an assistant message
type Status int

const (
	StatusInProgress Status = iota
	StatusComplete
	StatusFailed
	StatusAbandoned
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusComplete:
		return "complete"
	case StatusFailed:
		return "failed"
	case StatusAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Entry is one item of a message list
type Entry interface {
	ID() string
	Role() string
	View(width int) string
}

// UserMessage is a sent prompt
type UserMessage struct {
	id          string
	text        string
	attachments []string
}

func (m *UserMessage) ID() string   { return m.id }
func (m *UserMessage) Role() string { return chat.RoleUser }
func (m *UserMessage) Text() string { return m.text }

func (m *UserMessage) View(width int) string {
	var b strings.Builder
	b.WriteString(userLabelStyle.Render("You"))
	b.WriteByte('\n')
	b.WriteString(wordwrap.String(m.text, width))
	for _, name := range m.attachments {
		b.WriteString("\n" + dimStyle.Render("📎 "+name))
	}
	return b.String()
}

// AssistantMessage is the render target of one response. While in
// progress it is written only by its stream's dispatcher; once finalized
// further writes are ignored.
type AssistantMessage struct {
	mu       sync.RWMutex
	id       string
	renderer *render.Renderer
	status   Status

	steps    []chat.ReasoningStep
	expanded bool
	sources  []chat.SourceRef
	text     string
	failure  string

	rendered      string
	renderedWidth int

	onAbandon func(id string)
}

func newAssistantMessage(renderer *render.Renderer, onAbandon func(string)) *AssistantMessage {
	return &AssistantMessage{
		id:        uuid.NewString(),
		renderer:  renderer,
		status:    StatusInProgress,
		onAbandon: onAbandon,
	}
}

// newStoredAssistant restores a completed message from history
func newStoredAssistant(renderer *render.Renderer, msg api.StoredMessage) *AssistantMessage {
	m := &AssistantMessage{
		id:       msg.ID,
		renderer: renderer,
		status:   StatusComplete,
		steps:    msg.ReasoningSteps.Value,
		sources:  msg.AllSources(),
		text:     msg.Content,
	}
	if m.id == "" {
		m.id = uuid.NewString()
	}
	m.rerender(renderer.Width())
	return m
}

func (m *AssistantMessage) ID() string   { return m.id }
func (m *AssistantMessage) Role() string { return chat.RoleAssistant }

// AddReasoning implements stream.Sink
func (m *AssistantMessage) AddReasoning(step chat.ReasoningStep) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusInProgress {
		return
	}
	m.steps = append(m.steps, step)
}

// SetSources implements stream.Sink
func (m *AssistantMessage) SetSources(sources []chat.SourceRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusInProgress {
		return
	}
	m.sources = sources
}

// SetContent implements stream.Sink. The whole text is re-rendered.
func (m *AssistantMessage) SetContent(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusInProgress {
		return
	}
	m.text = text
	m.rerender(m.renderer.Width())
}

// Complete implements stream.Sink
func (m *AssistantMessage) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusInProgress {
		m.status = StatusComplete
	}
}

// Fail implements stream.Sink
func (m *AssistantMessage) Fail(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusInProgress {
		return
	}
	m.status = StatusFailed
	m.failure = message
}

// Abandon implements stream.Sink by removing the placeholder from its list
func (m *AssistantMessage) Abandon() {
	m.mu.Lock()
	if m.status != StatusInProgress {
		m.mu.Unlock()
		return
	}
	m.status = StatusAbandoned
	onAbandon := m.onAbandon
	m.mu.Unlock()

	if onAbandon != nil {
		onAbandon(m.id)
	}
}

func (m *AssistantMessage) InProgress() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status == StatusInProgress
}

func (m *AssistantMessage) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Text returns the raw accumulated markdown
func (m *AssistantMessage) Text() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.text
}

// Rendered returns the formatted body at the renderer's width
func (m *AssistantMessage) Rendered() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rendered
}

func (m *AssistantMessage) Steps() []chat.ReasoningStep {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]chat.ReasoningStep(nil), m.steps...)
}

func (m *AssistantMessage) Sources() []chat.SourceRef {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]chat.SourceRef(nil), m.sources...)
}

func (m *AssistantMessage) Failure() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failure
}

// ToggleReasoning expands or collapses the reasoning panel
func (m *AssistantMessage) ToggleReasoning() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expanded = !m.expanded
}

// View renders the message at width
func (m *AssistantMessage) View(width int) string {
	m.mu.Lock()
	if width != m.renderedWidth && m.text != "" {
		m.rerender(width)
	}
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var parts []string
	parts = append(parts, assistantLabelStyle.Render("Deepship"))

	if len(m.steps) > 0 {
		parts = append(parts, m.reasoningView(width))
	}

	switch {
	case m.status == StatusFailed:
		parts = append(parts, errorStyle.Render(wordwrap.String(m.failure, width)))
	case m.rendered != "":
		parts = append(parts, m.rendered)
	case m.status == StatusInProgress:
		parts = append(parts, dimStyle.Render("Thinking…"))
	}

	if len(m.sources) > 0 {
		parts = append(parts, m.sourcesView(width))
	}
	return strings.Join(parts, "\n")
}

// rerender must be called with mu held for writing
func (m *AssistantMessage) rerender(width int) {
	r := m.renderer
	if width != r.Width() {
		r = r.WithWidth(width)
	}
	m.rendered = r.Render(m.text)
	m.renderedWidth = width
}

func (m *AssistantMessage) reasoningView(width int) string {
	inner := width - 4
	if inner < 10 {
		inner = 10
	}

	title := fmt.Sprintf("Reasoning (%d steps)", len(m.steps))
	if m.status == StatusInProgress {
		title = fmt.Sprintf("Reasoning… (%d steps)", len(m.steps))
	}
	if !m.expanded {
		last := m.steps[len(m.steps)-1]
		line := truncate.StringWithTail(last.Title()+": "+last.Content, uint(inner), "…")
		return reasoningStyle.Render(title + "\n" + line)
	}

	var rows []string
	rows = append(rows, title)
	for i, step := range m.steps {
		row := fmt.Sprintf("%d. %s", i+1, step.Title())
		if step.Content != "" && step.Content != step.Title() {
			row += ": " + step.Content
		}
		if step.FoundSources > 0 {
			row += fmt.Sprintf(" (%d sources)", step.FoundSources)
		}
		rows = append(rows, wordwrap.String(row, inner))
	}
	return reasoningStyle.Render(strings.Join(rows, "\n"))
}

func (m *AssistantMessage) sourcesView(width int) string {
	rows := []string{dimStyle.Render("Sources")}
	for i, s := range m.sources {
		label := s.Label()
		line := sourceIndexStyle.Render(fmt.Sprintf("[%d]", i+1)) + " " + label
		if label != s.URL {
			line += " " + dimStyle.Render(s.URL)
		}
		rows = append(rows, truncate.StringWithTail(line, uint(width), "…"))
	}
	return strings.Join(rows, "\n")
}

var _ stream.Sink = (*AssistantMessage)(nil)
