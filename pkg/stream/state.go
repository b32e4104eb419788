package stream

// State is the dispatcher's position in one stream's lifecycle
type State int

const (
	StateAwaitingFirstFrame State = iota
	StateStreaming
	StateTerminated
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateAwaitingFirstFrame:
		return "awaiting_first_frame"
	case StateStreaming:
		return "streaming"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
