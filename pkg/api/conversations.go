package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/umeshrajanna/deepship-api/pkg/chat"
)

// Conversation is one entry of the user's conversation list
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    Timestamp `json:"created_at"`
	UpdatedAt    Timestamp `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// Asset is a generated artefact attached to a message (chart data, tables)
type Asset map[string]any

// Kind returns the asset's "type" field
func (a Asset) Kind() string {
	if t, ok := a["type"].(string); ok {
		return t
	}
	return "asset"
}

// Reaction is a user reaction on a stored message
type Reaction struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

// StoredMessage is a persisted chat message. Sources, reasoning steps and
// assets are normalized at decode time.
type StoredMessage struct {
	ID             string                         `json:"id"`
	Role           string                         `json:"role"`
	Content        string                         `json:"content"`
	HasFile        bool                           `json:"has_file"`
	CreatedAt      Timestamp                      `json:"created_at"`
	Sources        Flexible[chat.SourceList]      `json:"sources"`
	ReasoningSteps Flexible[[]chat.ReasoningStep] `json:"reasoning_steps"`
	Assets         Flexible[[]Asset]              `json:"assets"`
	App            AppContent                     `json:"app"`
	LabMode        bool                           `json:"lab_mode"`
	Status         string                         `json:"status"`
	Reactions      []Reaction                     `json:"reactions,omitempty"`
}

// AllSources returns the message sources plus those cited by its reasoning
// steps, deduplicated by URL.
func (m StoredMessage) AllSources() []chat.SourceRef {
	var set chat.SourceSet
	set.Add(m.Sources.Value...)
	for _, step := range m.ReasoningSteps.Value {
		set.Add(step.Sources...)
	}
	return set.Items()
}

// ListConversations returns the signed-in user's conversations, newest first
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var out []Conversation
	if err := c.call(ctx, http.MethodGet, "/conversations", nil, nil, &out, authRequired); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return out, nil
}

// Messages returns the stored messages of a conversation in order
func (c *Client) Messages(ctx context.Context, conversationID string) ([]StoredMessage, error) {
	var out []StoredMessage
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &out, authOptional); err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return out, nil
}

// DeleteConversation removes a conversation
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	path := "/conversations/" + url.PathEscape(conversationID)
	if err := c.call(ctx, http.MethodDelete, path, nil, nil, nil, authRequired); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}
