package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/umeshrajanna/deepship-api/pkg/chat"
	"github.com/umeshrajanna/deepship-api/pkg/headless"
	"github.com/umeshrajanna/deepship-api/pkg/render"
)

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Send one message and print the answer",
	Long: `Send one message and stream the answer to stdout.

The prompt is read from the arguments, or from stdin when none are given.
Reasoning steps, sources and errors go to stderr.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("mode", "", "search mode: normal, deep or lab (default: the saved mode)")
	askCmd.Flags().StringArray("attach", nil, "file to attach (repeatable)")
	askCmd.Flags().String("conversation", "", "continue this conversation instead of the active one")
	askCmd.Flags().Bool("new", false, "start a new conversation")
	askCmd.Flags().Bool("raw", false, "stream raw markdown even on a terminal")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	prompt, err := readPrompt(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	mode := a.session.Mode()
	if name, _ := cmd.Flags().GetString("mode"); name != "" {
		if mode, err = chat.ParseMode(name); err != nil {
			return err
		}
	}

	if startNew, _ := cmd.Flags().GetBool("new"); startNew {
		if err := a.session.NewChat(ctx); err != nil {
			return err
		}
	}
	if id, _ := cmd.Flags().GetString("conversation"); id != "" {
		if err := a.session.SetConversationID(ctx, id); err != nil {
			return err
		}
	}

	paths, _ := cmd.Flags().GetStringArray("attach")
	attachments, err := a.loadAttachments(paths)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var renderer *render.Renderer
	if raw, _ := cmd.Flags().GetBool("raw"); !raw && isTerminal(out) {
		renderer = a.renderer(out)
	}

	res, err := headless.RunHeadless(ctx, headless.Options{
		Opener:       a.opener(),
		Session:      a.session,
		Mode:         mode,
		Attachments:  attachments,
		MaxLineBytes: a.cfg.Stream.MaxLineBytes,
		Out:          out,
		Status:       cmd.ErrOrStderr(),
		Renderer:     renderer,
	}, prompt)
	// Failures and limit prompts were already written to stderr.
	if err != nil && res != nil && (res.Failure != "" || res.Prompt != "") {
		return errReported
	}
	return err
}

func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := stdin.(*os.File); ok && isTerminal(f) {
		return "", fmt.Errorf("no prompt given")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("no prompt given")
	}
	return prompt, nil
}
