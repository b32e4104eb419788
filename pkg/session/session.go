// Package session holds the signed-in user, the active conversation and the
// search mode, persisted in the durable key/value store.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/umeshrajanna/deepship-api/pkg/chat"
	"github.com/umeshrajanna/deepship-api/pkg/logger"
	"github.com/umeshrajanna/deepship-api/pkg/store"
)

// Persisted keys
const (
	KeyAccessToken          = "access_token"
	KeyUserID               = "user_id"
	KeyUsername             = "username"
	KeyEmail                = "email"
	KeySearchMode           = "search_mode"
	KeyPanelCollapsed       = "conversations_panel_collapsed"
	KeyConversationID       = "current_conversation_id"
	groupCollapsedKeyPrefix = "group_collapsed:"
)

// User is the signed-in account
type User struct {
	ID       string
	Username string
	Email    string
	Token    string
}

// Context is the session shared by every component of the client
type Context struct {
	mu             sync.RWMutex
	kv             store.KV
	user           *User
	conversationID string
	mode           chat.Mode
	panelCollapsed bool
}

// Load restores a session from kv
func Load(ctx context.Context, kv store.KV) (*Context, error) {
	s := &Context{kv: kv, mode: chat.ModeNormal}

	get := func(key string) (string, error) {
		v, err := kv.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return v, err
	}

	token, err := get(KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	if token != "" {
		u := &User{Token: token}
		if u.ID, err = get(KeyUserID); err != nil {
			return nil, fmt.Errorf("failed to restore session: %w", err)
		}
		if u.Username, err = get(KeyUsername); err != nil {
			return nil, fmt.Errorf("failed to restore session: %w", err)
		}
		if u.Email, err = get(KeyEmail); err != nil {
			return nil, fmt.Errorf("failed to restore session: %w", err)
		}
		s.user = u
	}

	if s.conversationID, err = get(KeyConversationID); err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	modeStr, err := get(KeySearchMode)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	if mode, err := chat.ParseMode(modeStr); err == nil {
		s.mode = mode
	} else {
		logger.WithComponent("session").Warn("ignoring persisted search mode", "value", modeStr)
	}

	collapsed, err := get(KeyPanelCollapsed)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	s.panelCollapsed, _ = strconv.ParseBool(collapsed)

	return s, nil
}

// User returns the signed-in user, if any
func (s *Context) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token, or "" when anonymous
func (s *Context) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Token
}

func (s *Context) IsAuthenticated() bool {
	return s.Token() != ""
}

// Login stores the user and token
func (s *Context) Login(ctx context.Context, u User) error {
	if u.Token == "" {
		return fmt.Errorf("login requires an access token")
	}
	for key, value := range map[string]string{
		KeyAccessToken: u.Token,
		KeyUserID:      u.ID,
		KeyUsername:    u.Username,
		KeyEmail:       u.Email,
	} {
		if err := s.kv.Set(ctx, key, value); err != nil {
			return fmt.Errorf("failed to persist login: %w", err)
		}
	}

	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()

	logger.WithComponent("session").Info("logged in", "user_id", u.ID, "username", u.Username)
	return nil
}

// Logout forgets the user and the active conversation
func (s *Context) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyAccessToken, KeyUserID, KeyUsername, KeyEmail, KeyConversationID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.mu.Lock()
	s.user = nil
	s.conversationID = ""
	s.mu.Unlock()

	logger.WithComponent("session").Info("logged out")
	return nil
}

// ConversationID returns the active conversation, "" for a new chat
func (s *Context) ConversationID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversationID
}

// SetConversationID makes id the active conversation
func (s *Context) SetConversationID(ctx context.Context, id string) error {
	s.mu.Lock()
	s.conversationID = id
	s.mu.Unlock()

	if id == "" {
		return s.kv.Delete(ctx, KeyConversationID)
	}
	if err := s.kv.Set(ctx, KeyConversationID, id); err != nil {
		return fmt.Errorf("failed to persist conversation: %w", err)
	}
	return nil
}

// NewChat clears the active conversation
func (s *Context) NewChat(ctx context.Context) error {
	return s.SetConversationID(ctx, "")
}

// ConversationDeleted clears the active conversation when it is id
func (s *Context) ConversationDeleted(ctx context.Context, id string) error {
	if s.ConversationID() != id {
		return nil
	}
	return s.NewChat(ctx)
}

func (s *Context) Mode() chat.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Context) SetMode(ctx context.Context, m chat.Mode) error {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
	return s.kv.Set(ctx, KeySearchMode, m.String())
}

// PanelCollapsed reports whether the conversations panel is collapsed
func (s *Context) PanelCollapsed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panelCollapsed
}

func (s *Context) SetPanelCollapsed(ctx context.Context, collapsed bool) error {
	s.mu.Lock()
	s.panelCollapsed = collapsed
	s.mu.Unlock()
	return s.kv.Set(ctx, KeyPanelCollapsed, strconv.FormatBool(collapsed))
}

// GroupCollapsed reports the stored collapse flag of a date group
func (s *Context) GroupCollapsed(ctx context.Context, group string) bool {
	v, err := s.kv.Get(ctx, groupCollapsedKeyPrefix+group)
	if err != nil {
		return false
	}
	collapsed, _ := strconv.ParseBool(v)
	return collapsed
}

func (s *Context) SetGroupCollapsed(ctx context.Context, group string, collapsed bool) error {
	return s.kv.Set(ctx, groupCollapsedKeyPrefix+group, strconv.FormatBool(collapsed))
}
