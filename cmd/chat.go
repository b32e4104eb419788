package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/umeshrajanna/deepship-api/pkg/chat"
	"github.com/umeshrajanna/deepship-api/pkg/stream"
	"github.com/umeshrajanna/deepship-api/pkg/tui"
	tuichat "github.com/umeshrajanna/deepship-api/pkg/tui/chat"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	addChatFlags(chatCmd)
	rootCmd.AddCommand(chatCmd)
}

func addChatFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "search mode for this session: normal, deep or lab")
	cmd.Flags().StringArray("attach", nil, "file to attach to the first message (repeatable)")
}

func runChat(cmd *cobra.Command, args []string) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return fmt.Errorf("interactive chat needs a terminal; use `deepship ask` for scripts")
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if name, _ := cmd.Flags().GetString("mode"); name != "" {
		mode, err := chat.ParseMode(name)
		if err != nil {
			return err
		}
		if err := a.session.SetMode(ctx, mode); err != nil {
			return err
		}
	}

	maxSize, err := a.maxFileSize()
	if err != nil {
		return err
	}
	queue := stream.NewAttachmentQueue(a.cfg.Attachments.MaxFiles)
	paths, _ := cmd.Flags().GetStringArray("attach")
	attachments, err := a.loadAttachments(paths)
	if err != nil {
		return err
	}
	for _, att := range attachments {
		if err := queue.Add(att); err != nil {
			return err
		}
	}

	return tui.StartApp(ctx, tuichat.Options{
		Session:      a.session,
		Backend:      a.client,
		Opener:       a.opener(),
		Renderer:     a.renderer(os.Stdout),
		Attachments:  queue,
		MaxFileSize:  maxSize,
		RefreshDelay: a.cfg.Stream.RefreshDelay,
		MaxLineBytes: a.cfg.Stream.MaxLineBytes,
	})
}
