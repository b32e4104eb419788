package status

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m StatusModel) Update(msg tea.Msg) (StatusModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.isActive {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StartStreamingMsg:
		m.isActive = true
		m.startTime = time.Now()
		m.timer = 0
		m.steps = 0
		m.state = msg.State
		if m.state == StateIdle {
			m.state = StateSending
		}
		return m, tea.Batch(m.spinner.Tick, tickEvery())

	case SetProcessStateMsg:
		if m.isActive {
			m.state = msg.State
		}
		return m, nil

	case SetStepsMsg:
		m.steps = msg.Steps
		return m, nil

	case StopStreamingMsg:
		m.isActive = false
		m.state = StateIdle
		m.timer = 0
		m.steps = 0
		return m, nil

	case TickMsg:
		if m.isActive {
			m.timer = time.Since(m.startTime)
			return m, tickEvery()
		}
		return m, nil
	}

	return m, nil
}

// tickEvery returns a command that sends a tick message every second
func tickEvery() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
