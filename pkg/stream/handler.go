package stream

import (
	"context"

	"github.com/umeshrajanna/deepship-api/pkg/chat"
)

// Sink is the render target for one in-flight assistant message. The
// dispatcher is its only writer; after Complete, Fail or Abandon it is
// detached and further calls are ignored by implementations.
type Sink interface {
	// AddReasoning appends one reasoning step. The first call creates the
	// reasoning panel.
	AddReasoning(step chat.ReasoningStep)

	// SetSources replaces the deduplicated source list.
	SetSources(sources []chat.SourceRef)

	// SetContent replaces the response body with the full accumulated text.
	SetContent(text string)

	// Complete clears the in-progress indicator.
	Complete()

	// Fail replaces the response body with an error message.
	Fail(message string)

	// Abandon removes the placeholder without showing anything inline.
	Abandon()
}

// Prompter opens the account prompts a usage-limit error routes to
type Prompter interface {
	ShowUpgrade(message string)
	ShowSignIn(message string)
}

// ConversationTracker holds the active conversation id across sends
type ConversationTracker interface {
	ConversationID() string
	SetConversationID(ctx context.Context, id string) error
}

// SinkFuncs is a function adapter for the Sink interface
type SinkFuncs struct {
	ReasoningFunc func(step chat.ReasoningStep)
	SourcesFunc   func(sources []chat.SourceRef)
	ContentFunc   func(text string)
	CompleteFunc  func()
	FailFunc      func(message string)
	AbandonFunc   func()
}

// AddReasoning implements Sink
func (s SinkFuncs) AddReasoning(step chat.ReasoningStep) {
	if s.ReasoningFunc != nil {
		s.ReasoningFunc(step)
	}
}

// SetSources implements Sink
func (s SinkFuncs) SetSources(sources []chat.SourceRef) {
	if s.SourcesFunc != nil {
		s.SourcesFunc(sources)
	}
}

// SetContent implements Sink
func (s SinkFuncs) SetContent(text string) {
	if s.ContentFunc != nil {
		s.ContentFunc(text)
	}
}

// Complete implements Sink
func (s SinkFuncs) Complete() {
	if s.CompleteFunc != nil {
		s.CompleteFunc()
	}
}

// Fail implements Sink
func (s SinkFuncs) Fail(message string) {
	if s.FailFunc != nil {
		s.FailFunc(message)
	}
}

// Abandon implements Sink
func (s SinkFuncs) Abandon() {
	if s.AbandonFunc != nil {
		s.AbandonFunc()
	}
}

// PrompterFuncs is a function adapter for the Prompter interface
type PrompterFuncs struct {
	UpgradeFunc func(message string)
	SignInFunc  func(message string)
}

// ShowUpgrade implements Prompter
func (p PrompterFuncs) ShowUpgrade(message string) {
	if p.UpgradeFunc != nil {
		p.UpgradeFunc(message)
	}
}

// ShowSignIn implements Prompter
func (p PrompterFuncs) ShowSignIn(message string) {
	if p.SignInFunc != nil {
		p.SignInFunc(message)
	}
}

// Ensure implementations satisfy the interfaces
var (
	_ Sink     = SinkFuncs{}
	_ Prompter = PrompterFuncs{}
)
