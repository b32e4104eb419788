package stream

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/umeshrajanna/deepship-api/pkg/chat"
)

// WriterSink adapts an io.Writer to the Sink interface. Content is written
// as deltas of the accumulated text; reasoning, sources and errors go to
// status when it is set.
type WriterSink struct {
	mu      sync.Mutex
	out     io.Writer
	status  io.Writer
	text    string
	sources []chat.SourceRef
	failure string
	closed  bool
	err     error
}

// NewWriterSink creates a sink that streams response text to out
func NewWriterSink(out, status io.Writer) *WriterSink {
	return &WriterSink{out: out, status: status}
}

// AddReasoning writes a one-line progress entry to status
func (w *WriterSink) AddReasoning(step chat.ReasoningStep) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.status == nil {
		return
	}
	line := step.Title()
	if step.Content != "" && step.Content != line {
		line += ": " + step.Content
	}
	w.writeStatus("• %s\n", line)
}

// SetSources records the latest source list
func (w *WriterSink) SetSources(sources []chat.SourceRef) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.sources = sources
}

// SetContent writes whatever part of text has not been written yet
func (w *WriterSink) SetContent(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	delta := strings.TrimPrefix(text, w.text)
	if delta == text && w.text != "" {
		// not an extension of what was written; start over on a new line
		delta = "\n" + text
	}
	w.text = text
	if delta == "" || w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.out, delta)
}

// Complete terminates the output line and lists collected sources
func (w *WriterSink) Complete() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	if w.err == nil && w.text != "" && !strings.HasSuffix(w.text, "\n") {
		_, w.err = io.WriteString(w.out, "\n")
	}
	if len(w.sources) > 0 && w.status != nil {
		w.writeStatus("\nSources:\n")
		for i, s := range w.sources {
			w.writeStatus("  [%d] %s\n", i+1, s.URL)
		}
	}
}

// Fail writes the message to status
func (w *WriterSink) Fail(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.failure = message
	if w.status != nil {
		w.writeStatus("Error: %s\n", message)
	}
}

// Abandon detaches the sink without output
func (w *WriterSink) Abandon() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

// Content returns the accumulated response text
func (w *WriterSink) Content() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.text
}

// Sources returns the last source list received
func (w *WriterSink) Sources() []chat.SourceRef {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sources
}

// Failure returns the message passed to Fail, if any
func (w *WriterSink) Failure() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failure
}

// Err returns the first write error
func (w *WriterSink) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *WriterSink) writeStatus(format string, args ...any) {
	if _, err := fmt.Fprintf(w.status, format, args...); err != nil && w.err == nil {
		w.err = err
	}
}

// MultiSink broadcasts every call to multiple sinks.
// Similar to io.MultiWriter but for the Sink interface.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a sink that forwards to all sinks in order
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) AddReasoning(step chat.ReasoningStep) {
	for _, s := range m.sinks {
		s.AddReasoning(step)
	}
}

func (m *MultiSink) SetSources(sources []chat.SourceRef) {
	for _, s := range m.sinks {
		s.SetSources(sources)
	}
}

func (m *MultiSink) SetContent(text string) {
	for _, s := range m.sinks {
		s.SetContent(text)
	}
}

func (m *MultiSink) Complete() {
	for _, s := range m.sinks {
		s.Complete()
	}
}

func (m *MultiSink) Fail(message string) {
	for _, s := range m.sinks {
		s.Fail(message)
	}
}

func (m *MultiSink) Abandon() {
	for _, s := range m.sinks {
		s.Abandon()
	}
}

// Ensure implementations satisfy the interface
var (
	_ Sink = (*WriterSink)(nil)
	_ Sink = (*MultiSink)(nil)
)
