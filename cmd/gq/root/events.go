package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"growthquest/internal/ui"
)

func newEventsCmd() *cobra.Command {
	var stat string
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent stat changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			events, err := svc.GetRecentStatEvents(ctx, user.ID, stat, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconScroll, "Recent changes"))
			if len(events) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(none)"))
			}
			for _, e := range events {
				fmt.Fprintf(out, "%s %s %-12s %+3d %s %s\n",
					ui.Muted.Render(e.CreatedAt.Local().Format("2006-01-02 15:04")),
					ui.StatIcon(e.Stat), e.Stat, e.Delta, e.Description, ui.Muted.Render("("+string(e.Type)+")"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&stat, "stat", "s", "", "Only this stat (name, alias or \"level\")")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of entries (default $GQ_EVENTS_LIMIT, max 100)")

	return cmd
}
