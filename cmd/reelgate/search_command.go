package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelgate/internal/tmdb"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "search <title>...",
		Short: "Search TMDB for a movie",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			resp, err := client.SearchMovie(cmd.Context(), query, page)
			if err != nil {
				return err
			}
			if len(resp.Results) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No results for %q\n", query)
				return nil
			}

			results := resp.Results
			if len(results) > cfg.TMDB.ResultsPerPage {
				results = results[:cfg.TMDB.ResultsPerPage]
			}
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				year := ""
				if y := result.Year(); y > 0 {
					year = strconv.Itoa(y)
				}
				rows = append(rows, []string{
					strconv.FormatInt(result.ID, 10),
					result.Title,
					year,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderTable(
				[]string{"TMDB ID", "Title", "Year"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight},
			))
			if resp.TotalPages > 1 {
				fmt.Fprintf(out, "Page %d of %d (%d results total)\n", resp.Page, resp.TotalPages, resp.TotalResults)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Result page to fetch")
	return cmd
}
