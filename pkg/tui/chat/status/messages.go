package status

import "time"

// ProcessState is the phase of the active response
type ProcessState string

const (
	StateIdle      ProcessState = ""
	StateSending   ProcessState = "sending"
	StateThinking  ProcessState = "thinking"
	StateReceiving ProcessState = "receiving"
)

// Icon returns the arrow shown next to the state
func (s ProcessState) Icon() string {
	switch s {
	case StateSending:
		return "↑"
	case StateThinking:
		return "…"
	case StateReceiving:
		return "↓"
	default:
		return ""
	}
}

// DisplayName returns the label shown in the bar
func (s ProcessState) DisplayName() string {
	switch s {
	case StateSending:
		return "Sending"
	case StateThinking:
		return "Thinking"
	case StateReceiving:
		return "Receiving"
	default:
		return ""
	}
}

// StartStreamingMsg indicates a response has started
type StartStreamingMsg struct {
	State ProcessState
}

// StopStreamingMsg indicates the response has ended
type StopStreamingMsg struct{}

// SetProcessStateMsg moves the bar to a new phase
type SetProcessStateMsg struct {
	State ProcessState
}

// SetStepsMsg updates the reasoning step count
type SetStepsMsg struct {
	Steps int
}

// TickMsg updates the timer
type TickMsg time.Time
