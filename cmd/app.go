package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/umeshrajanna/deepship-api/pkg/api"
	"github.com/umeshrajanna/deepship-api/pkg/config"
	"github.com/umeshrajanna/deepship-api/pkg/render"
	"github.com/umeshrajanna/deepship-api/pkg/session"
	"github.com/umeshrajanna/deepship-api/pkg/store"
	"github.com/umeshrajanna/deepship-api/pkg/stream"
)

// app bundles what every subcommand needs: config, the durable store, the
// session over it and an API client authorized by that session.
type app struct {
	cfg     *config.Config
	kv      *store.SQLite
	session *session.Context
	client  *api.Client
}

func openApp(ctx context.Context) (*app, error) {
	cfg := config.Get()

	kv, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	sess, err := session.Load(ctx, kv)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return &app{
		cfg:     cfg,
		kv:      kv,
		session: sess,
		client:  api.NewClientWithTimeout(cfg.API.BaseURL, cfg.API.Timeout, sess),
	}, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}

func (a *app) opener() *stream.Initiator {
	return stream.NewInitiator(a.cfg.API.BaseURL, a.session)
}

func (a *app) maxFileSize() (int64, error) {
	size, err := config.ParseSize(a.cfg.Attachments.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("invalid attachments.max_file_size: %w", err)
	}
	return size, nil
}

func (a *app) loadAttachments(paths []string) ([]stream.Attachment, error) {
	if limit := a.cfg.Attachments.MaxFiles; limit > 0 && len(paths) > limit {
		return nil, fmt.Errorf("too many attachments: %d (max %d)", len(paths), limit)
	}
	maxSize, err := a.maxFileSize()
	if err != nil {
		return nil, err
	}

	out := make([]stream.Attachment, 0, len(paths))
	for _, p := range paths {
		att, err := stream.LoadAttachment(p, maxSize)
		if err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	return out, nil
}

// renderer returns a markdown renderer sized to w when it is a terminal.
// Non-terminals get plain output without highlighting escapes.
func (a *app) renderer(w io.Writer) *render.Renderer {
	width := a.cfg.Render.Width
	tty := isTerminal(w)
	if tty {
		if tw := terminalWidth(w); tw > 0 && (width <= 0 || tw < width) {
			width = tw
		}
	}
	return render.New(render.Options{
		Width:     width,
		CodeStyle: a.cfg.Render.CodeStyle,
		Plain:     !tty,
	})
}

func (a *app) requireLogin() error {
	if !a.session.IsAuthenticated() {
		return fmt.Errorf("%w: run `deepship login` first", api.ErrUnauthenticated)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
