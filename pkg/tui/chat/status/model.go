package status

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/umeshrajanna/deepship-api/pkg/tui/theme"
)

// StatusModel represents the status bar component
type StatusModel struct {
	spinner   spinner.Model
	state     ProcessState
	timer     time.Duration
	steps     int
	startTime time.Time
	isActive  bool
	width     int
}

// NewStatusModel creates a new status bar model
func NewStatusModel() StatusModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorViolet)

	return StatusModel{spinner: s}
}

// Active reports whether a response is in flight
func (m StatusModel) Active() bool { return m.isActive }

// State returns the current phase
func (m StatusModel) State() ProcessState { return m.state }
