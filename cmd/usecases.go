package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/umeshrajanna/deepship-api/pkg/api"
	"github.com/umeshrajanna/deepship-api/pkg/logger"
	"github.com/umeshrajanna/deepship-api/pkg/view"
)

var usecasesCmd = &cobra.Command{
	Use:     "usecases",
	Aliases: []string{"examples"},
	Short:   "Browse curated example conversations",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		filter := api.UseCaseFilter{}
		filter.Category, _ = cmd.Flags().GetString("category")
		if cmd.Flags().Changed("featured") {
			featured, _ := cmd.Flags().GetBool("featured")
			filter.Featured = &featured
		}

		cases, err := a.client.ListUseCases(ctx, filter)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(cases) == 0 {
			fmt.Fprintln(out, "No use cases found.")
			return nil
		}

		rows := make([][]string, 0, len(cases))
		for _, uc := range cases {
			title := truncate(uc.Title, 48)
			if uc.Featured {
				title = "★ " + title
			}
			rows = append(rows, []string{uc.ID, title, uc.Category, uc.DifficultyLevel, strconv.Itoa(uc.ViewCount)})
		}
		printTable(out, []string{"ID", "TITLE", "CATEGORY", "LEVEL", "VIEWS"}, rows)
		return nil
	},
}

var usecasesCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List use case categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		categories, err := a.client.UseCaseCategories(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(categories))
		for _, c := range categories {
			rows = append(rows, []string{c.Key, strings.TrimSpace(c.Icon + " " + c.Name), strconv.Itoa(c.Count)})
		}
		printTable(cmd.OutOrStdout(), []string{"KEY", "NAME", "COUNT"}, rows)
		return nil
	},
}

var usecasesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a use case conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		thread, err := a.client.UseCaseMessages(ctx, args[0])
		if err != nil {
			return err
		}
		if _, err := a.client.IncrementUseCaseViews(ctx, args[0]); err != nil {
			logger.Warn("failed to record use case view", "use_case_id", args[0], "error", err)
		}

		out := cmd.OutOrStdout()
		uc := thread.UseCase
		fmt.Fprintln(out, titleStyle.Render(uc.Title))
		if uc.Description != "" {
			fmt.Fprintln(out, uc.Description)
		}
		meta := []string{uc.Category}
		if uc.DifficultyLevel != "" {
			meta = append(meta, uc.DifficultyLevel)
		}
		if len(uc.Tags) > 0 {
			meta = append(meta, "#"+strings.Join(uc.Tags, " #"))
		}
		fmt.Fprintln(out, hintStyle.Render(strings.Join(meta, " · ")))
		fmt.Fprintln(out)

		messages := make([]api.StoredMessage, 0, len(thread.Messages))
		for _, m := range thread.Messages {
			messages = append(messages, m.StoredMessage)
		}
		renderer := a.renderer(out)
		list := view.NewMessageList(renderer)
		list.Load(messages)
		fmt.Fprintln(out, list.View(renderer.Width()))
		return nil
	},
}

func init() {
	usecasesCmd.Flags().String("category", "", "only this category")
	usecasesCmd.Flags().Bool("featured", false, "only featured use cases (--featured=false for the rest)")

	usecasesCmd.AddCommand(usecasesCategoriesCmd, usecasesShowCmd)
	rootCmd.AddCommand(usecasesCmd)
}
