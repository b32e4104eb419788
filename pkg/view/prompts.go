package view

import (
	"sync"

	"github.com/muesli/reflow/wordwrap"

	"github.com/umeshrajanna/deepship-api/pkg/stream"
)

// PromptKind identifies the account prompt on screen
type PromptKind int

const (
	PromptNone PromptKind = iota
	PromptUpgrade
	PromptSignIn
)

func (k PromptKind) String() string {
	switch k {
	case PromptUpgrade:
		return "upgrade"
	case PromptSignIn:
		return "sign_in"
	default:
		return "none"
	}
}

// Prompts tracks the upgrade and sign-in prompts a usage-limit error opens
type Prompts struct {
	mu      sync.RWMutex
	kind    PromptKind
	message string
}

func NewPrompts() *Prompts {
	return &Prompts{}
}

// ShowUpgrade implements stream.Prompter
func (p *Prompts) ShowUpgrade(message string) {
	p.show(PromptUpgrade, message)
}

// ShowSignIn implements stream.Prompter
func (p *Prompts) ShowSignIn(message string) {
	p.show(PromptSignIn, message)
}

func (p *Prompts) show(kind PromptKind, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kind = kind
	p.message = message
}

// Active returns the open prompt
func (p *Prompts) Active() (PromptKind, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.kind, p.message
}

func (p *Prompts) Dismiss() {
	p.show(PromptNone, "")
}

// View renders the open prompt, or "" when none is open
func (p *Prompts) View(width int) string {
	kind, message := p.Active()
	var title, hint string
	switch kind {
	case PromptUpgrade:
		title = "You've used all your messages"
		hint = "Run `deepship credits buy` to get more. Press esc to close."
	case PromptSignIn:
		title = "Sign in to keep chatting"
		hint = "Run `deepship login` or `deepship magic-link <email>`. Press esc to close."
	default:
		return ""
	}

	inner := width - 6
	if inner < 20 {
		inner = 20
	}
	body := title
	if message != "" {
		body += "\n\n" + wordwrap.String(message, inner)
	}
	body += "\n\n" + dimStyle.Render(wordwrap.String(hint, inner))
	return promptStyle.Render(body)
}

var _ stream.Prompter = (*Prompts)(nil)
