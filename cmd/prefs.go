package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/umeshrajanna/deepship-api/pkg/chat"
	"github.com/umeshrajanna/deepship-api/pkg/view"
)

var modeCmd = &cobra.Command{
	Use:       "mode [normal|deep|lab]",
	Short:     "Show or set the search mode",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(chat.ModeNormal), string(chat.ModeDeep), string(chat.ModeLab)},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			mode, err := chat.ParseMode(args[0])
			if err != nil {
				return err
			}
			if err := a.session.SetMode(ctx, mode); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "mode: %s\n", a.session.Mode())
		return nil
	},
}

var panelCmd = &cobra.Command{
	Use:   "panel <collapse|expand> [group]",
	Short: "Collapse or expand the conversations panel or one of its date groups",
	Long: fmt.Sprintf(`Collapse or expand the conversations panel of the interactive chat.

With a group name only that date group changes. Groups: %q, %q, %q, %q, %q.`,
		view.GroupToday, view.GroupYesterday, view.GroupWeek, view.GroupMonth, view.GroupOlder),
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"collapse", "expand"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var collapsed bool
		switch args[0] {
		case "collapse":
			collapsed = true
		case "expand":
		default:
			return fmt.Errorf("unknown panel action %q (want collapse or expand)", args[0])
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 2 {
			group, err := view.ParseGroup(args[1])
			if err != nil {
				return err
			}
			return a.session.SetGroupCollapsed(ctx, group, collapsed)
		}
		return a.session.SetPanelCollapsed(ctx, collapsed)
	},
}

func init() {
	rootCmd.AddCommand(modeCmd, panelCmd)
}
