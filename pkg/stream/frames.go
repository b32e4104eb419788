package stream

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/umeshrajanna/deepship-api/pkg/chat"
)

// FrameType is the "type" tag of one NDJSON record
type FrameType string

const (
	FrameMetadata  FrameType = "metadata"
	FrameReasoning FrameType = "reasoning"
	FrameContent   FrameType = "content"
	FrameDone      FrameType = "done"
	FrameError     FrameType = "error"
)

// Frame is one decoded line of the chat response body. Only the fields of
// its Type are populated.
type Frame struct {
	Type FrameType `json:"type"`

	// metadata
	ConversationID string `json:"conversation_id,omitempty"`
	IsAnonymous    bool   `json:"is_anonymous,omitempty"`
	DeepSearch     bool   `json:"deep_search,omitempty"`
	LabMode        bool   `json:"lab_mode,omitempty"`
	FilesProcessed int    `json:"files_processed,omitempty"`

	// reasoning
	Step         string          `json:"step,omitempty"`
	Content      string          `json:"content,omitempty"`
	Sources      chat.SourceList `json:"sources,omitempty"`
	FoundSources int             `json:"found_sources,omitempty"`
	Query        string          `json:"query,omitempty"`
	Category     string          `json:"category,omitempty"`
	Timestamp    string          `json:"timestamp,omitempty"`

	// content
	Text string `json:"text,omitempty"`

	// error
	Message      string `json:"message,omitempty"`
	LimitReached bool   `json:"limit_reached,omitempty"`
	UserLimit    bool   `json:"user_limit,omitempty"`
	Remaining    *int   `json:"remaining,omitempty"`
}

var errNoType = errors.New("frame has no type")

// DecodeFrame parses one line. Unknown types decode without error and are
// left for the dispatcher to ignore.
func DecodeFrame(line []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(line, &f); err != nil {
		return Frame{}, fmt.Errorf("failed to parse frame: %w", err)
	}
	if f.Type == "" {
		return Frame{}, errNoType
	}
	return f, nil
}

// Known reports whether the dispatcher has a route for the frame type
func (f Frame) Known() bool {
	switch f.Type {
	case FrameMetadata, FrameReasoning, FrameContent, FrameDone, FrameError:
		return true
	}
	return false
}

// Terminal reports whether the frame ends the stream
func (f Frame) Terminal() bool {
	return f.Type == FrameDone || f.Type == FrameError
}

// ReasoningStep converts a reasoning frame into the panel entry it renders as
func (f Frame) ReasoningStep() chat.ReasoningStep {
	return chat.ReasoningStep{
		Step:         f.Step,
		Content:      f.Content,
		Query:        f.Query,
		Category:     f.Category,
		FoundSources: f.FoundSources,
		Sources:      f.Sources,
		Timestamp:    f.Timestamp,
	}
}
