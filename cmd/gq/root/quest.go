package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"growthquest/internal/engine"
	"growthquest/internal/ui"
)

func newQuestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quest",
		Aliases: []string{"q"},
		Short:   "Create, list, complete and remove quests",
	}
	cmd.AddCommand(
		newQuestAddCmd(),
		newQuestListCmd(),
		newQuestDoCmd(),
		newQuestRmCmd(),
		newQuestGenerateCmd(),
		newQuestImportCmd(),
	)
	return cmd
}

func newQuestAddCmd() *cobra.Command {
	var diff string
	var stats string
	var desc string
	var estimate string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a manual quest",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("title is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := engine.ParseDifficulty(diff)
			if err != nil {
				return err
			}
			targets, err := engine.ParseStatList(stats)
			if err != nil {
				return err
			}

			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			q, err := svc.CreateQuest(ctx, user.ID, engine.CreateQuestInput{
				Title:         args[0],
				Description:   desc,
				Difficulty:    d,
				EstimatedTime: estimate,
				TargetStats:   targets,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Added quest %d: %s\n", ui.IconPlus, q.ID, q.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&diff, "diff", "d", "easy", "Difficulty (easy|medium|hard)")
	cmd.Flags().StringVarP(&stats, "stats", "s", "", "Target stats, comma separated (1-3, e.g. int,foc)")
	cmd.Flags().StringVar(&desc, "desc", "", "Description")
	cmd.Flags().StringVarP(&estimate, "time", "t", "", "Estimated time (free text)")
	_ = cmd.MarkFlagRequired("stats")
	_ = cmd.MarkFlagRequired("desc")
	_ = cmd.MarkFlagRequired("time")

	return cmd
}

func newQuestListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List quests",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			quests, err := svc.ListQuests(ctx, user.ID)
			if err != nil {
				return err
			}
			printQuests(cmd.OutOrStdout(), quests, all)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed quests")

	return cmd
}

func printQuests(out io.Writer, quests []engine.Quest, all bool) {
	fmt.Fprintln(out, ui.Heading(ui.IconQuest, "Quests"))
	shown := 0
	for _, q := range quests {
		if !all && !q.IsOpen() {
			continue
		}
		shown++
		targets := make([]string, len(q.TargetStats))
		for i, s := range q.TargetStats {
			targets[i] = ui.StatIcon(string(s)) + " " + string(s)
		}
		line := fmt.Sprintf("%4d %s [%s] %s", q.ID, q.Title, ui.DifficultyText(string(q.Difficulty)), strings.Join(targets, ", "))
		if q.AIGenerated {
			line += " " + ui.IconRobot
		}
		if all {
			line += " " + ui.StatusText(string(q.Status))
		}
		if q.CompletedAtLevel != nil {
			line += ui.Muted.Render(fmt.Sprintf(" (level %d)", *q.CompletedAtLevel))
		}
		fmt.Fprintln(out, line)
		if q.EstimatedTime != "" {
			fmt.Fprintln(out, "     "+ui.Muted.Render(q.EstimatedTime))
		}
	}
	if shown == 0 {
		fmt.Fprintln(out, ui.Muted.Render("(no quests)"))
	}
}

func parseQuestID(args []string) error {
	if len(args) != 1 {
		return errors.New("id is required")
	}
	if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
		return errors.New("id must be an integer")
	}
	return nil
}

func newQuestDoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "do <id>",
		Short: "Complete a quest",
		Args: func(cmd *cobra.Command, args []string) error {
			return parseQuestID(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := strconv.ParseInt(args[0], 10, 64)

			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.CompleteQuest(ctx, user.ID, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Completed %q at level %d\n", ui.IconDone, res.Quest.Title, res.LevelAtCompletion)
			for _, inc := range res.Increases {
				fmt.Fprintf(out, "  %s %-12s %2d -> %2d %s\n", ui.StatIcon(string(inc.Stat)), inc.Stat, inc.Before, inc.After,
					ui.Good.Render(fmt.Sprintf("+%d", inc.Realized)))
			}
			if res.CanLevelUp {
				fmt.Fprintln(out, ui.BadgeLevelUp+" "+ui.Muted.Render("run `gq levelup`"))
			}
			return nil
		},
	}

	return cmd
}

func newQuestRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an open quest",
		Args: func(cmd *cobra.Command, args []string) error {
			return parseQuestID(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := strconv.ParseInt(args[0], 10, 64)

			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.DeleteQuest(ctx, user.ID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted quest %d.\n", id)
			return nil
		},
	}
}

func newQuestGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Ask the analysis provider for quests tailored to your stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			quests, err := svc.GenerateQuests(ctx, user.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Generated %d quests.\n", ui.IconRobot, len(quests))
			printQuests(cmd.OutOrStdout(), quests, false)
			return nil
		},
	}
}

func newQuestImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml|->",
		Short: "Create manual quests in bulk from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			inputs, err := decodeQuestFile([]byte(raw))
			if err != nil {
				return err
			}

			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			quests, err := svc.CreateQuests(ctx, user.ID, engine.SourceImport, inputs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Imported %d quests.\n", ui.IconPlus, len(quests))
			return nil
		},
	}
}

// questFile accepts either a top-level list or a {quests: [...]} document.
type questFile struct {
	Quests []engine.QuestDraft `yaml:"quests"`
}

func decodeQuestFile(data []byte) ([]engine.CreateQuestInput, error) {
	var drafts []engine.QuestDraft
	if err := yaml.Unmarshal(data, &drafts); err != nil {
		var doc questFile
		if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
			return nil, engine.ValidationError("file", fmt.Sprintf("invalid quest YAML: %v", err2))
		}
		drafts = doc.Quests
	}
	if len(drafts) == 0 {
		return nil, engine.ValidationError("file", "no quests found")
	}
	inputs := make([]engine.CreateQuestInput, 0, len(drafts))
	for i, d := range drafts {
		in, err := d.Input(false)
		if err != nil {
			return nil, fmt.Errorf("quest %d: %w", i+1, err)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}
