// Package view holds the client's view-model: the message list and its
// assistant render targets, the conversations panel, prompts and notices.
// All types are safe for use from the stream goroutine and the presenter.
package view

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/umeshrajanna/deepship-api/pkg/api"
	"github.com/umeshrajanna/deepship-api/pkg/chat"
	"github.com/umeshrajanna/deepship-api/pkg/render"
	"github.com/umeshrajanna/deepship-api/pkg/stream"
)

// MessageList is the ordered messages of one conversation view
type MessageList struct {
	mu       sync.RWMutex
	entries  []Entry
	renderer *render.Renderer
	follow   bool
	offset   int
}

// NewMessageList creates an empty list that follows new content
func NewMessageList(renderer *render.Renderer) *MessageList {
	return &MessageList{renderer: renderer, follow: true}
}

// HasInProgress reports whether any assistant entry is still streaming
func (l *MessageList) HasInProgress() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if a, ok := e.(*AssistantMessage); ok && a.InProgress() {
			return true
		}
	}
	return false
}

// AppendUser adds a sent prompt
func (l *MessageList) AppendUser(text string, attachments []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, &UserMessage{
		id:          uuid.NewString(),
		text:        text,
		attachments: attachments,
	})
}

// AppendAssistant adds an in-progress placeholder and returns it as the
// stream's sink
func (l *MessageList) AppendAssistant() stream.Sink {
	return l.appendAssistant()
}

func (l *MessageList) appendAssistant() *AssistantMessage {
	m := newAssistantMessage(l.renderer, l.remove)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, m)
	return m
}

// Load replaces the list with stored history
func (l *MessageList) Load(messages []api.StoredMessage) {
	entries := make([]Entry, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleUser:
			var files []string
			if msg.HasFile {
				files = []string{"attachment"}
			}
			entries = append(entries, &UserMessage{id: msg.ID, text: msg.Content, attachments: files})
		case chat.RoleAssistant:
			entries = append(entries, newStoredAssistant(l.renderer, msg))
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	l.follow = true
	l.offset = 0
}

// Clear empties the list for a new chat
func (l *MessageList) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.follow = true
	l.offset = 0
}

func (l *MessageList) remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e.ID() == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

func (l *MessageList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns a snapshot of the list
func (l *MessageList) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

// LastAssistant returns the newest assistant message, if any
func (l *MessageList) LastAssistant() (*AssistantMessage, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.entries) - 1; i >= 0; i-- {
		if a, ok := l.entries[i].(*AssistantMessage); ok {
			return a, true
		}
	}
	return nil, false
}

// View renders every entry at width
func (l *MessageList) View(width int) string {
	entries := l.Entries()
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, e.View(width))
	}
	return strings.Join(parts, "\n\n")
}

// Follow reports whether the list tracks the newest content
func (l *MessageList) Follow() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.follow
}

// SetFollow turns bottom-tracking on (active stream) or off (user scrolled)
func (l *MessageList) SetFollow(follow bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.follow = follow
}

// Offset is the scroll position kept while not following
func (l *MessageList) Offset() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.offset
}

// SetOffset records a scroll position and stops following
func (l *MessageList) SetOffset(offset int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	l.offset = offset
	l.follow = false
}

var _ stream.MessageList = (*MessageList)(nil)
