package view

import (
	"sync"
	"time"

	"github.com/umeshrajanna/deepship-api/pkg/stream"
)

// DefaultNoticeTTL is how long a transient notice stays visible
const DefaultNoticeTTL = 4 * time.Second

// Level of a notice
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Notice is one transient status-line message
type Notice struct {
	Level   Level
	Message string
	Expires time.Time
}

// Notifier keeps the most recent transient notice
type Notifier struct {
	mu      sync.RWMutex
	current Notice
	ttl     time.Duration
	now     func() time.Time
}

func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &Notifier{ttl: ttl, now: time.Now}
}

func (n *Notifier) Info(message string)  { n.post(LevelInfo, message) }
func (n *Notifier) Warn(message string)  { n.post(LevelWarn, message) }
func (n *Notifier) Error(message string) { n.post(LevelError, message) }

func (n *Notifier) post(level Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = Notice{Level: level, Message: message, Expires: n.now().Add(n.ttl)}
}

// Current returns the notice if it has not expired
func (n *Notifier) Current() (Notice, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.current.Message == "" || !n.now().Before(n.current.Expires) {
		return Notice{}, false
	}
	return n.current, true
}

// View renders the current notice
func (n *Notifier) View() string {
	notice, ok := n.Current()
	if !ok {
		return ""
	}
	switch notice.Level {
	case LevelError:
		return errorStyle.Render(notice.Message)
	case LevelWarn:
		return warnStyle.Render(notice.Message)
	default:
		return dimStyle.Render(notice.Message)
	}
}

var _ stream.Notifier = (*Notifier)(nil)
