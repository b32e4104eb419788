package headless

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/umeshrajanna/deepship-api/pkg/logger"
)

var (
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f5b761"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#eb8755")).Bold(true)
)

// Output writes headless notices to the status stream. It serves as the
// run's Notifier and Prompter.
type Output struct {
	mu     sync.Mutex
	w      io.Writer
	prompt string
}

// NewOutput creates a new output handler
func NewOutput(w io.Writer) *Output {
	return &Output{w: w}
}

// Warn implements stream.Notifier
func (o *Output) Warn(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, warnStyle.Render(msg))
}

// Error prints an error message and logs it
func (o *Output) Error(msg string) {
	logger.Error(msg)
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, "Error: "+msg)
}

// ShowUpgrade implements stream.Prompter
func (o *Output) ShowUpgrade(message string) {
	o.showPrompt(message, "Run `deepship credits buy` to get more messages.")
}

// ShowSignIn implements stream.Prompter
func (o *Output) ShowSignIn(message string) {
	o.showPrompt(message, "Run `deepship login` to keep chatting.")
}

func (o *Output) showPrompt(message, hint string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prompt = message
	fmt.Fprintln(o.w, promptStyle.Render(message))
	fmt.Fprintln(o.w, hint)
}

// Prompt returns the limit message shown, if any
func (o *Output) Prompt() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.prompt
}
