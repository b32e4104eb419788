// Package headless runs a single prompt against the chat stream and writes
// the response to plain writers, for scripts and pipes.
package headless

import (
	"context"
	"errors"
	"fmt"
)

// ErrLimitReached is returned when the backend refused the message because
// a usage limit was hit
var ErrLimitReached = errors.New("message limit reached")

// RunHeadless executes a single prompt in headless mode
// This is the main entry point for headless/CLI execution
func RunHeadless(ctx context.Context, opts Options, prompt string) (*Result, error) {
	if prompt == "" && len(opts.Attachments) == 0 {
		return nil, fmt.Errorf("prompt cannot be empty in headless mode")
	}

	r, err := newRunner(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize headless mode: %w", err)
	}
	defer r.cleanup()

	res, err := r.run(ctx, prompt)
	if err != nil {
		return res, fmt.Errorf("failed to execute prompt: %w", err)
	}
	return res, nil
}
