package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"growthquest/internal/ui"
)

func newAchievementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "achievements",
		Short: "Show badges and quests completed per level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			a, err := svc.GetAchievements(ctx, user.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconTrophy, fmt.Sprintf("Achievements (%d/%d badges)", a.CountEarned(), len(a.Badges))))
			for _, b := range a.Badges {
				if b.Earned {
					fmt.Fprintf(out, "%s %s %s\n", b.Icon, ui.Gold.Render(b.Name), ui.Muted.Render(b.Description))
				} else {
					fmt.Fprintf(out, "%s %s %s\n", ui.Dim.Render("·"), ui.Dim.Render(b.Name), ui.Muted.Render(b.Description))
				}
			}

			fmt.Fprintln(out, "")
			fmt.Fprintln(out, ui.H2.Render(fmt.Sprintf("Completed quests (%d)", a.Completed)))
			for _, g := range a.ByLevel {
				fmt.Fprintln(out, ui.Key.Render(fmt.Sprintf("Level %d", g.Level)))
				for _, q := range g.Quests {
					fmt.Fprintf(out, "  %s %s [%s]\n", ui.IconDone, q.Title, ui.DifficultyText(string(q.Difficulty)))
				}
			}
			return nil
		},
	}
}
