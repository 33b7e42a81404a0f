package root

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"growthquest/internal/engine"
	"growthquest/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show stats, level progress and open quests",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconSparkle, "Status: "+user.Nickname))

			stats, err := svc.GetStats(ctx, user.ID)
			switch {
			case engine.IsKind(err, engine.KindNotFound):
				fmt.Fprintln(out, ui.Muted.Render("No stats yet. Run `gq analyze submit` then `gq analyze run`."))
			case err != nil:
				return err
			default:
				printStats(out, stats, svc.Policy().Progress(stats))
			}

			quests, err := svc.ListQuests(ctx, user.ID)
			if err != nil {
				return err
			}
			open := 0
			for _, q := range quests {
				if q.IsOpen() {
					open++
				}
			}
			fmt.Fprintln(out, "")
			fmt.Fprintln(out, ui.LabelValue("Open quests", fmt.Sprintf("%d/%d", open, engine.MaxOpenQuests)))
			fmt.Fprintln(out, ui.LabelValue("Completed quests", len(quests)-open))
			return nil
		},
	}

	return cmd
}

func printStats(out io.Writer, v engine.StatVector, p engine.Progress) {
	fmt.Fprintln(out, ui.LabelValue("Level", v.Level))
	fmt.Fprintln(out, ui.LabelValue("Total", v.TotalPoints))
	switch {
	case p.AtMax:
		fmt.Fprintln(out, ui.LabelValue("Next level", ui.Gold.Render("max level reached")))
	case p.Requirement != nil:
		fmt.Fprintln(out, ui.LabelValue("Next level", fmt.Sprintf("every stat ≥ %d, total ≥ %d (%.0f%% / %.0f%%)",
			p.Requirement.MinStatValue, p.Requirement.TotalPointsRequired, p.PercentMinStat, p.PercentTotal)))
	}
	if p.CanLevelUp {
		fmt.Fprintln(out, ui.BadgeLevelUp+" "+ui.Muted.Render("run `gq levelup`"))
	}
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, ui.H2.Render("📊 Stats"))
	for _, name := range engine.StatNames {
		value := v.Get(name)
		fmt.Fprintf(out, "- %s %-12s %2d %s\n", ui.StatIcon(string(name)), name, value, ui.Bar(value, engine.StatCeiling, 20))
	}
}
