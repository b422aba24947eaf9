package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelgate/internal/config"
	"reelgate/internal/logging"
	"reelgate/internal/requests"
)

func newRequestsCommand(ctx *commandContext) *cobra.Command {
	requestsCmd := &cobra.Command{
		Use:   "requests",
		Short: "Inspect and manage movie requests",
	}

	requestsCmd.AddCommand(newRequestsListCommand(ctx))
	requestsCmd.AddCommand(newRequestsCancelCommand(ctx))

	return requestsCmd
}

func newRequestsListCommand(ctx *commandContext) *cobra.Command {
	var requesterID string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *requests.Store) error {
				var list []*requests.Request
				var err error
				if strings.TrimSpace(requesterID) != "" {
					list, err = store.ListByRequester(cmd.Context(), requesterID)
				} else {
					list, err = store.ListRecent(cmd.Context(), limit)
				}
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No requests")
					return nil
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(list))
				for _, request := range list {
					year := ""
					if request.Year > 0 {
						year = strconv.Itoa(request.Year)
					}
					rows = append(rows, []string{
						strconv.FormatInt(request.ID, 10),
						request.RequesterID,
						strconv.FormatInt(request.TMDBID, 10),
						request.Title,
						year,
						statusCell(request.Status, colorize),
						request.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"ID", "Requester", "TMDB", "Title", "Year", "Status", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&requesterID, "requester", "", "Show only this requester's requests")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of requests to list")
	return cmd
}

func newRequestsCancelCommand(ctx *commandContext) *cobra.Command {
	var requesterID string

	cmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid request id %q", args[0])
			}
			if strings.TrimSpace(requesterID) == "" {
				return fmt.Errorf("--requester is required")
			}

			return ctx.withStore(func(cfg *config.Config, store *requests.Store) error {
				cancelled, err := store.Cancel(cmd.Context(), id, requesterID)
				if err != nil {
					return err
				}
				if !cancelled {
					return fmt.Errorf("no pending request %d for requester %s", id, requesterID)
				}
				if err := store.LogActivity(cmd.Context(), requesterID, "request_cancelled", fmt.Sprintf("request %d", id)); err != nil {
					cliLogger().Warn("record cancellation", logging.Error(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancelled request %d\n", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&requesterID, "requester", "", "Requester who owns the request")
	return cmd
}
