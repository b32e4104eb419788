package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/umeshrajanna/deepship-api/pkg/api"
	"github.com/umeshrajanna/deepship-api/pkg/logger"
)

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Show the latest headlines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := api.NewsQuery{}
		q.Category, _ = cmd.Flags().GetString("category")
		q.Country, _ = cmd.Flags().GetString("country")
		q.Query, _ = cmd.Flags().GetString("query")
		limit, _ := cmd.Flags().GetInt("limit")

		q.Category = strings.ToLower(q.Category)
		if q.Category != "" && !slices.Contains(api.NewsCategories, q.Category) {
			return fmt.Errorf("unknown category %q (want one of %s)", q.Category, strings.Join(api.NewsCategories, ", "))
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if q.Country == "" {
			if info, err := a.client.DetectCountry(ctx); err != nil {
				logger.Debug("country detection failed", "error", err)
			} else {
				q.Country = info.CountryCode
			}
		}

		feed, err := a.client.News(ctx, q)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		category := feed.Category
		if category == "" {
			category = q.Category
		}
		header := capitalize(category) + " news"
		if feed.Country != "" {
			header += " · " + strings.ToUpper(feed.Country)
		}
		fmt.Fprintln(out, titleStyle.Render(header))
		if !feed.CachedAt.IsZero() {
			fmt.Fprintln(out, hintStyle.Render("updated "+formatTime(feed.CachedAt.Time)))
		}
		fmt.Fprintln(out)

		articles := feed.Articles
		if limit > 0 && len(articles) > limit {
			articles = articles[:limit]
		}
		if len(articles) == 0 {
			fmt.Fprintln(out, "No articles.")
			return nil
		}
		for i, art := range articles {
			fmt.Fprintf(out, "%2d. %s\n", i+1, art.Title)
			meta := []string{}
			if art.Source != "" {
				meta = append(meta, art.Source)
			}
			if art.PubDate != "" {
				meta = append(meta, art.PubDate)
			}
			if len(meta) > 0 {
				fmt.Fprintf(out, "    %s\n", hintStyle.Render(strings.Join(meta, " · ")))
			}
			if art.Link != "" {
				fmt.Fprintf(out, "    %s\n", art.Link)
			}
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().String("category", "general", "one of "+strings.Join(api.NewsCategories, ", "))
	newsCmd.Flags().String("country", "", "two-letter country code (default: detected)")
	newsCmd.Flags().StringP("query", "q", "", "search term")
	newsCmd.Flags().Int("limit", 10, "maximum number of articles")
	rootCmd.AddCommand(newsCmd)
}
