package stream

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/umeshrajanna/deepship-api/pkg/chat"
)

// UpdateMsg is a Bubble Tea message sent after a stream mutated its sink
type UpdateMsg struct {
	StreamID  string
	Timestamp time.Time
}

// FinishedMsg is a Bubble Tea message sent when a stream's sink is finalized
type FinishedMsg struct {
	StreamID  string
	Failed    bool
	Timestamp time.Time
}

// MessageSender is the part of *tea.Program a ProgramSink needs
type MessageSender interface {
	Send(msg tea.Msg)
}

// ProgramSink forwards to an inner sink and then wakes the Bubble Tea
// program so it re-renders the shared view model.
type ProgramSink struct {
	streamID string
	inner    Sink
	program  MessageSender
}

// NewProgramSink creates a sink that notifies program after each update
func NewProgramSink(streamID string, inner Sink, program MessageSender) *ProgramSink {
	return &ProgramSink{
		streamID: streamID,
		inner:    inner,
		program:  program,
	}
}

func (p *ProgramSink) AddReasoning(step chat.ReasoningStep) {
	p.inner.AddReasoning(step)
	p.updated()
}

func (p *ProgramSink) SetSources(sources []chat.SourceRef) {
	p.inner.SetSources(sources)
	p.updated()
}

func (p *ProgramSink) SetContent(text string) {
	p.inner.SetContent(text)
	p.updated()
}

func (p *ProgramSink) Complete() {
	p.inner.Complete()
	p.finished(false)
}

func (p *ProgramSink) Fail(message string) {
	p.inner.Fail(message)
	p.finished(true)
}

func (p *ProgramSink) Abandon() {
	p.inner.Abandon()
	p.finished(false)
}

func (p *ProgramSink) updated() {
	if p.program != nil {
		p.program.Send(UpdateMsg{StreamID: p.streamID, Timestamp: time.Now()})
	}
}

func (p *ProgramSink) finished(failed bool) {
	if p.program != nil {
		p.program.Send(FinishedMsg{StreamID: p.streamID, Failed: failed, Timestamp: time.Now()})
	}
}

// Ensure ProgramSink implements Sink
var _ Sink = (*ProgramSink)(nil)
