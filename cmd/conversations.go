package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/umeshrajanna/deepship-api/pkg/view"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "Manage saved conversations",
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireLogin(); err != nil {
			return err
		}

		conversations, err := a.client.ListConversations(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(conversations) == 0 {
			fmt.Fprintln(out, "No conversations yet.")
			return nil
		}

		active := a.session.ConversationID()
		rows := make([][]string, 0, len(conversations))
		for _, c := range conversations {
			marker := ""
			if c.ID == active {
				marker = "*"
			}
			rows = append(rows, []string{
				marker,
				c.ID,
				truncate(c.Title, 48),
				strconv.Itoa(c.MessageCount),
				formatTime(c.UpdatedAt.Time),
			})
		}
		printTable(out, []string{"", "ID", "TITLE", "MESSAGES", "UPDATED"}, rows)
		return nil
	},
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireLogin(); err != nil {
			return err
		}

		messages, err := a.client.Messages(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		renderer := a.renderer(out)
		list := view.NewMessageList(renderer)
		list.Load(messages)
		fmt.Fprintln(out, list.View(renderer.Width()))

		if open, _ := cmd.Flags().GetBool("open"); open {
			return a.session.SetConversationID(ctx, args[0])
		}
		return nil
	},
}

var conversationsOpenCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Make a conversation the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.session.SetConversationID(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Active conversation: %s\n", args[0])
		return nil
	},
}

var conversationsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a conversation",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireLogin(); err != nil {
			return err
		}

		if err := a.client.DeleteConversation(ctx, args[0]); err != nil {
			return err
		}
		if err := a.session.ConversationDeleted(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
		return nil
	},
}

var conversationsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new conversation on the next message",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.session.NewChat(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "The next message starts a new conversation.")
		return nil
	},
}

func init() {
	conversationsShowCmd.Flags().Bool("open", false, "also make it the active conversation")

	conversationsCmd.AddCommand(conversationsListCmd, conversationsShowCmd, conversationsOpenCmd, conversationsDeleteCmd, conversationsNewCmd)
	rootCmd.AddCommand(conversationsCmd)
}
