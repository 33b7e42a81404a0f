package root

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"growthquest/internal/engine"
	"growthquest/internal/ui"
)

func newLevelUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "levelup",
		Short: "Advance one level when every requirement is met",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			v, err := svc.RequestLevelUp(ctx, user.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconUp, fmt.Sprintf("Level %d reached!", v.Level)))
			printStats(out, v, svc.Policy().Progress(v))
			return nil
		},
	}
}

func newGrantCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "grant <stat> <amount>",
		Short: "Manually raise one stat by a positive amount",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("stat and amount are required")
			}
			if _, err := strconv.Atoi(args[1]); err != nil {
				return errors.New("amount must be an integer")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			stat, err := engine.ParseStatName(args[0])
			if err != nil {
				return err
			}
			amount, _ := strconv.Atoi(args[1])

			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			inc, v, err := svc.GrantStat(ctx, user.ID, stat, amount, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %d -> %d (+%d)\n", ui.StatIcon(string(stat)), stat, inc.Before, inc.After, inc.Realized)
			if v.CanLevelUp {
				fmt.Fprintln(cmd.OutOrStdout(), ui.BadgeLevelUp+" "+ui.Muted.Render("run `gq levelup`"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "Reason recorded in the stat history")

	return cmd
}
