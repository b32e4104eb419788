package headless

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/umeshrajanna/deepship-api/pkg/chat"
	"github.com/umeshrajanna/deepship-api/pkg/logger"
	"github.com/umeshrajanna/deepship-api/pkg/render"
	"github.com/umeshrajanna/deepship-api/pkg/stream"
)

// Options configure a headless run
type Options struct {
	Opener       stream.Opener
	Session      stream.ConversationTracker
	Mode         chat.Mode
	Attachments  []stream.Attachment
	MaxLineBytes int

	// Out receives the response text; Status receives reasoning, sources
	// and errors. They default to stdout and stderr.
	Out    io.Writer
	Status io.Writer

	// Renderer, when set, prints the finished response as formatted
	// markdown instead of streaming raw text
	Renderer *render.Renderer
}

// Result summarizes a headless run
type Result struct {
	ConversationID string
	Text           string
	Sources        []chat.SourceRef
	Steps          int
	Failure        string
	Prompt         string
}

// runner runs the chat in headless mode
type runner struct {
	opts   Options
	output *Output
	list   *messageList
	sender *stream.Sender
	log    *logger.Logger
}

func newRunner(opts Options) (*runner, error) {
	if opts.Opener == nil {
		return nil, fmt.Errorf("no request opener configured")
	}
	if opts.Session == nil {
		return nil, fmt.Errorf("no session configured")
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}

	output := NewOutput(opts.Status)

	sinkOut := opts.Out
	if opts.Renderer != nil {
		sinkOut = io.Discard
	}

	queue := stream.NewAttachmentQueue(0)
	for _, a := range opts.Attachments {
		if err := queue.Add(a); err != nil {
			return nil, err
		}
	}

	r := &runner{
		opts:   opts,
		output: output,
		list:   newMessageList(sinkOut, opts.Status),
		log:    logger.WithComponent("headless"),
	}
	r.sender = stream.NewSender(stream.SenderOptions{
		Opener:       opts.Opener,
		Session:      opts.Session,
		Prompter:     output,
		Notifier:     output,
		Attachments:  queue,
		MaxLineBytes: opts.MaxLineBytes,
	})
	return r, nil
}

// run executes a single prompt in headless mode
func (r *runner) run(ctx context.Context, prompt string) (*Result, error) {
	r.log.Debug("headless prompt", "chars", len(prompt), "mode", r.opts.Mode.String())

	d, err := r.sender.Send(ctx, r.list, prompt, r.opts.Mode)
	res := &Result{ConversationID: r.opts.Session.ConversationID()}
	if sink := r.list.current(); sink != nil {
		res.Text = sink.Content()
		res.Sources = sink.Sources()
		res.Failure = sink.Failure()
		if werr := sink.Err(); werr != nil && err == nil {
			err = fmt.Errorf("failed to write response: %w", werr)
		}
	}
	if d != nil {
		res.Steps = d.Steps()
	}
	res.Prompt = r.output.Prompt()

	if err != nil {
		return res, err
	}

	if r.opts.Renderer != nil && res.Text != "" {
		if _, werr := io.WriteString(r.opts.Out, r.opts.Renderer.Render(res.Text)+"\n"); werr != nil {
			return res, fmt.Errorf("failed to write response: %w", werr)
		}
	}

	switch {
	case res.Prompt != "":
		return res, ErrLimitReached
	case res.Failure != "":
		return res, errors.New(res.Failure)
	}

	r.log.Debug("headless response complete", "chars", len(res.Text), "sources", len(res.Sources))
	return res, nil
}

// cleanup performs cleanup operations
func (r *runner) cleanup() {
	r.sender.Close()
}
