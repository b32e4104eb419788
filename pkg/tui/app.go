// Package tui runs the interactive chat client
package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/umeshrajanna/deepship-api/pkg/logger"
	"github.com/umeshrajanna/deepship-api/pkg/tui/chat"
)

// StartApp runs the chat screen until the user quits or ctx ends
func StartApp(ctx context.Context, opts chat.Options) error {
	log := logger.WithComponent("tui")

	m := chat.NewModel(ctx, opts)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	m.SetProgram(p)
	defer m.Close()

	log.Info("chat session start", "conversation_id", opts.Session.ConversationID(), "mode", opts.Session.Mode().String())
	_, err := p.Run()
	log.Info("chat session end", "had_error", err != nil)

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("chat screen failed: %w", err)
	}
	return nil
}
