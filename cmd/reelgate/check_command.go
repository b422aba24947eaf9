package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelgate/internal/availability"
	"reelgate/internal/catalog"
	"reelgate/internal/match"
	"reelgate/internal/tmdb"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var tmdbID int64

	cmd := &cobra.Command{
		Use:   "check [title]...",
		Short: "Check whether a movie is already in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if tmdbID <= 0 && query == "" {
				return errors.New("provide a title or --tmdb id")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
			if err != nil {
				return err
			}
			cat, err := catalog.Open(cfg.Paths.CatalogDB)
			if err != nil {
				return err
			}
			defer cat.Close()

			engine := match.NewEngine(cfg.Matching.Threshold, cfg.Matching.YearTolerance)
			checker := availability.NewChecker(client, cat, engine, cfg.Matching.CandidateLimit, cliLogger())

			var decision availability.Decision
			if tmdbID > 0 {
				decision = checker.Check(cmd.Context(), tmdbID)
			} else {
				decision, err = checker.CheckTitle(cmd.Context(), query)
				if errors.Is(err, availability.ErrNoResults) {
					fmt.Fprintf(cmd.OutOrStdout(), "No TMDB results for %q\n", query)
					return nil
				}
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			name := decision.Title
			if name == "" {
				name = query
			}
			if decision.Year > 0 {
				fmt.Fprintf(out, "%s (%d) [TMDB %d]\n", name, decision.Year, decision.TMDBID)
			} else {
				fmt.Fprintf(out, "%s [TMDB %d]\n", name, decision.TMDBID)
			}
			fmt.Fprintf(out, "Available: %s (score %.1f)\n", yesNo(decision.Available), decision.Score)
			if decision.Available && decision.Filename != "" {
				fmt.Fprintf(out, "Matched file: %s\n", decision.Filename)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&tmdbID, "tmdb", 0, "Check by TMDB movie id instead of title search")
	return cmd
}
