package view

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/muesli/reflow/truncate"

	"github.com/umeshrajanna/deepship-api/pkg/api"
	"github.com/umeshrajanna/deepship-api/pkg/logger"
)

// Date groups, newest first
const (
	GroupToday     = "Today"
	GroupYesterday = "Yesterday"
	GroupWeek      = "Previous 7 Days"
	GroupMonth     = "Previous 30 Days"
	GroupOlder     = "Older"
)

var groupOrder = []string{GroupToday, GroupYesterday, GroupWeek, GroupMonth, GroupOlder}

// CollapseStore persists the panel and per-group collapse flags
type CollapseStore interface {
	PanelCollapsed() bool
	SetPanelCollapsed(ctx context.Context, collapsed bool) error
	GroupCollapsed(ctx context.Context, group string) bool
	SetGroupCollapsed(ctx context.Context, group string, collapsed bool) error
}

// ConversationLister fetches the conversation list
type ConversationLister interface {
	ListConversations(ctx context.Context) ([]api.Conversation, error)
}

// PanelEntry is one row of the panel
type PanelEntry struct {
	api.Conversation
	Active bool
}

// Group is a date bucket of conversations
type Group struct {
	Name      string
	Collapsed bool
	Entries   []PanelEntry
}

// ConversationsPanel lists the user's conversations grouped by date and
// marks the active one
type ConversationsPanel struct {
	mu          sync.RWMutex
	store       CollapseStore
	items       []api.Conversation
	activeID    string
	cursor      int
	refreshedAt time.Time
	now         func() time.Time
}

func NewConversationsPanel(store CollapseStore) *ConversationsPanel {
	return &ConversationsPanel{store: store, now: time.Now}
}

// Refresh fetches the list and reconciles the active entry. An anonymous
// session has no list and is not an error.
func (p *ConversationsPanel) Refresh(ctx context.Context, lister ConversationLister, activeID string) error {
	conversations, err := lister.ListConversations(ctx)
	if errors.Is(err, api.ErrUnauthenticated) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to refresh conversations: %w", err)
	}
	p.Reconcile(conversations, activeID)
	logger.WithComponent("view").Debug("conversations refreshed", "count", len(conversations), "active", activeID)
	return nil
}

// Reconcile replaces the list and marks activeID as the active entry
func (p *ConversationsPanel) Reconcile(conversations []api.Conversation, activeID string) {
	items := append([]api.Conversation(nil), conversations...)
	sort.SliceStable(items, func(i, j int) bool {
		return lastActivity(items[i]).After(lastActivity(items[j]))
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = items
	p.activeID = activeID
	p.refreshedAt = p.now()
	if p.cursor >= len(items) {
		p.cursor = max(len(items)-1, 0)
	}
}

// SetActive marks a conversation active without refetching
func (p *ConversationsPanel) SetActive(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activeID = id
}

func (p *ConversationsPanel) ActiveID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.activeID
}

// Remove drops a deleted conversation
func (p *ConversationsPanel) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, c := range p.items {
		if c.ID == id {
			p.items = append(p.items[:i], p.items[i+1:]...)
			break
		}
	}
	if p.activeID == id {
		p.activeID = ""
	}
	if p.cursor >= len(p.items) {
		p.cursor = max(len(p.items)-1, 0)
	}
}

func (p *ConversationsPanel) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}

// RefreshedAt is when the list was last reconciled
func (p *ConversationsPanel) RefreshedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.refreshedAt
}

// Groups buckets the conversations by last activity
func (p *ConversationsPanel) Groups(ctx context.Context) []Group {
	p.mu.RLock()
	defer p.mu.RUnlock()

	buckets := make(map[string][]PanelEntry)
	now := p.now()
	for _, c := range p.items {
		name := DateGroup(lastActivity(c), now)
		buckets[name] = append(buckets[name], PanelEntry{Conversation: c, Active: c.ID == p.activeID})
	}

	var groups []Group
	for _, name := range groupOrder {
		entries, ok := buckets[name]
		if !ok {
			continue
		}
		collapsed := false
		if p.store != nil {
			collapsed = p.store.GroupCollapsed(ctx, name)
		}
		groups = append(groups, Group{Name: name, Collapsed: collapsed, Entries: entries})
	}
	return groups
}

// Collapsed reports whether the whole panel is hidden
func (p *ConversationsPanel) Collapsed() bool {
	if p.store == nil {
		return false
	}
	return p.store.PanelCollapsed()
}

// TogglePanel flips and persists the panel collapse flag
func (p *ConversationsPanel) TogglePanel(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	return p.store.SetPanelCollapsed(ctx, !p.store.PanelCollapsed())
}

// ToggleGroup flips and persists one group's collapse flag
func (p *ConversationsPanel) ToggleGroup(ctx context.Context, group string) error {
	if p.store == nil {
		return nil
	}
	return p.store.SetGroupCollapsed(ctx, group, !p.store.GroupCollapsed(ctx, group))
}

// MoveCursor moves the selection over visible rows
func (p *ConversationsPanel) MoveCursor(ctx context.Context, delta int) {
	visible := len(p.visible(ctx))
	p.mu.Lock()
	defer p.mu.Unlock()
	if visible == 0 {
		p.cursor = 0
		return
	}
	p.cursor = min(max(p.cursor+delta, 0), visible-1)
}

// Selected returns the conversation under the cursor
func (p *ConversationsPanel) Selected(ctx context.Context) (api.Conversation, bool) {
	rows := p.visible(ctx)
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.cursor < 0 || p.cursor >= len(rows) {
		return api.Conversation{}, false
	}
	return rows[p.cursor], true
}

func (p *ConversationsPanel) visible(ctx context.Context) []api.Conversation {
	var rows []api.Conversation
	for _, g := range p.Groups(ctx) {
		if g.Collapsed {
			continue
		}
		for _, e := range g.Entries {
			rows = append(rows, e.Conversation)
		}
	}
	return rows
}

// View renders the panel at width
func (p *ConversationsPanel) View(ctx context.Context, width int) string {
	if p.Collapsed() {
		return ""
	}

	groups := p.Groups(ctx)
	if len(groups) == 0 {
		return dimStyle.Render("No conversations yet")
	}

	p.mu.RLock()
	cursor := p.cursor
	p.mu.RUnlock()

	var rows []string
	row := 0
	for _, g := range groups {
		marker := "▾"
		if g.Collapsed {
			marker = "▸"
		}
		rows = append(rows, groupStyle.Render(fmt.Sprintf("%s %s (%d)", marker, g.Name, len(g.Entries))))
		if g.Collapsed {
			continue
		}
		for _, e := range g.Entries {
			title := e.Title
			if title == "" {
				title = "Untitled"
			}
			line := truncate.StringWithTail("  "+title, uint(width), "…")
			if e.Active {
				line = activeStyle.Render(line)
			}
			if row == cursor {
				line = cursorStyle.Render(line)
			}
			rows = append(rows, line)
			row++
		}
	}
	return strings.Join(rows, "\n")
}

// DateGroup names the bucket for t relative to now, by calendar day in
// now's location
func DateGroup(t, now time.Time) string {
	if t.IsZero() {
		return GroupOlder
	}
	t = t.In(now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
	days := int(math.Round(today.Sub(day).Hours() / 24))

	switch {
	case days <= 0:
		return GroupToday
	case days == 1:
		return GroupYesterday
	case days <= 7:
		return GroupWeek
	case days <= 30:
		return GroupMonth
	default:
		return GroupOlder
	}
}

// ParseGroup resolves a user-typed group name. It accepts the display names
// in any case and the short forms today, yesterday, week, month and older.
func ParseGroup(s string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, g := range groupOrder {
		if strings.ToLower(g) == name {
			return g, nil
		}
	}
	switch name {
	case "today":
		return GroupToday, nil
	case "yesterday":
		return GroupYesterday, nil
	case "week", "7d":
		return GroupWeek, nil
	case "month", "30d":
		return GroupMonth, nil
	case "older":
		return GroupOlder, nil
	}
	return "", fmt.Errorf("unknown group %q", s)
}

func lastActivity(c api.Conversation) time.Time {
	if !c.UpdatedAt.IsZero() {
		return c.UpdatedAt.Time
	}
	return c.CreatedAt.Time
}
