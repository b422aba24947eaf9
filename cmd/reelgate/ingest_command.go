package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelgate/internal/config"
	"reelgate/internal/notifications"
	"reelgate/internal/reconcile"
	"reelgate/internal/requests"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <announcement>...",
		Short: "Run a catalog announcement through reconciliation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return ctx.withStore(func(cfg *config.Config, store *requests.Store) error {
				notifier := notifications.NewService(cfg)
				reconciler := reconcile.New(store, notifier, cfg.Matching.Threshold,
					cfg.Matching.YearTolerance, cfg.Matching.PendingScanLimit, cliLogger())

				outcome, err := reconciler.HandleAnnouncement(cmd.Context(), text)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(outcome.Completed) == 0 {
					fmt.Fprintln(out, "No pending requests matched")
					return nil
				}
				ids := make([]string, 0, len(outcome.Completed))
				for _, id := range outcome.Completed {
					ids = append(ids, strconv.FormatInt(id, 10))
				}
				fmt.Fprintf(out, "Completed %d request(s) via %s match: %s\n",
					len(outcome.Completed), outcome.Path, strings.Join(ids, ", "))
				return nil
			})
		},
	}
}
