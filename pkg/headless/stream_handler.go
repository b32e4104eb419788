package headless

import (
	"io"
	"sync"

	"github.com/umeshrajanna/deepship-api/pkg/stream"
)

// messageList is the single-exchange list of a headless run
type messageList struct {
	mu     sync.Mutex
	out    io.Writer
	status io.Writer
	sink   *trackedSink
}

func newMessageList(out, status io.Writer) *messageList {
	return &messageList{out: out, status: status}
}

func (l *messageList) HasInProgress() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sink != nil && !l.sink.finished()
}

// AppendUser is a no-op; the prompt is already on the user's terminal
func (l *messageList) AppendUser(string, []string) {}

func (l *messageList) AppendAssistant() stream.Sink {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = &trackedSink{WriterSink: stream.NewWriterSink(l.out, l.status)}
	return l.sink
}

func (l *messageList) current() *trackedSink {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sink
}

// trackedSink records when the writer sink was finalized
type trackedSink struct {
	*stream.WriterSink
	mu   sync.Mutex
	done bool
}

func (t *trackedSink) Complete() {
	t.WriterSink.Complete()
	t.finish()
}

func (t *trackedSink) Fail(message string) {
	t.WriterSink.Fail(message)
	t.finish()
}

func (t *trackedSink) Abandon() {
	t.WriterSink.Abandon()
	t.finish()
}

func (t *trackedSink) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
}

func (t *trackedSink) finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

var _ stream.MessageList = (*messageList)(nil)
