package command

import (
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"yamdb/internal/microservices/http-api/dto"
)

var titleCmd = &cobra.Command{
	Use:   "title",
	Short: "Browse titles and their reviews",
}

var listTitlesCmd = &cobra.Command{
	Use:   "list",
	Short: "List titles, optionally filtered",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		for _, name := range []string{"category", "genre", "name"} {
			if v, _ := cmd.Flags().GetString(name); v != "" {
				q.Set(name, v)
			}
		}
		if year, _ := cmd.Flags().GetInt("year"); year != 0 {
			q.Set("year", strconv.Itoa(year))
		}
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
			q.Set("limit", strconv.Itoa(limit))
		}

		page, err := newClient().ListTitles(cmd.Context(), q)
		if err != nil {
			return fmt.Errorf("failed to list titles: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(page.Results) == 0 {
			fmt.Fprintln(out, "No titles found.")
			return nil
		}
		fmt.Fprintf(out, "Titles (%d total):\n\n", page.Count)
		for _, t := range page.Results {
			printTitleLine(out, t)
		}
		return nil
	},
}

var showTitleCmd = &cobra.Command{
	Use:   "show [title-id]",
	Short: "Show a title with its latest reviews",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid title ID: %w", err)
		}

		c := newClient()
		title, err := c.GetTitle(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get title: %w", err)
		}
		reviews, err := c.ListReviews(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get reviews: %w", err)
		}

		out := cmd.OutOrStdout()
		printTitleLine(out, *title)
		if title.Description != nil && *title.Description != "" {
			fmt.Fprintf(out, "\n%s\n", *title.Description)
		}
		fmt.Fprintf(out, "\nReviews (%d):\n", reviews.Count)
		for _, r := range reviews.Results {
			fmt.Fprintf(out, "  [%d/10] %s: %s\n", r.Score, r.Author, r.Text)
		}
		return nil
	},
}

func printTitleLine(out io.Writer, t dto.TitleResponse) {
	rating := "-"
	if t.Rating != nil {
		rating = strconv.Itoa(*t.Rating)
	}
	category := "-"
	if t.Category != nil {
		category = t.Category.Name
	}
	fmt.Fprintf(out, "ID: %d | %s (%d) | category: %s | rating: %s\n", t.ID, t.Name, t.Year, category, rating)
}

func init() {
	rootCmd.AddCommand(titleCmd)
	titleCmd.AddCommand(listTitlesCmd)
	titleCmd.AddCommand(showTitleCmd)

	listTitlesCmd.Flags().String("category", "", "category slug")
	listTitlesCmd.Flags().String("genre", "", "genre slug")
	listTitlesCmd.Flags().String("name", "", "name substring")
	listTitlesCmd.Flags().Int("year", 0, "release year")
	listTitlesCmd.Flags().Int("limit", 0, "page size")
}
