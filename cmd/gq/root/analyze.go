package root

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"growthquest/internal/engine"
	"growthquest/internal/llm"
	"growthquest/internal/ui"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Assign initial stats from a self-analysis",
	}
	cmd.AddCommand(
		newAnalyzeQuestionsCmd(),
		newAnalyzeSubmitCmd(),
		newAnalyzeRunCmd(),
		newAnalyzeIngestCmd(),
	)
	return cmd
}

func newAnalyzeQuestionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "Print the onboarding questionnaire",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconScroll, "Questionnaire"))
			for _, q := range llm.Questionnaire {
				fmt.Fprintf(out, "%s %s\n", ui.Key.Render(q.Key+":"), q.Prompt)
			}
			fmt.Fprintln(out, ui.Muted.Render("Answer with: gq analyze submit --answer q1=... --answer q2=..."))
			return nil
		},
	}
}

func newAnalyzeSubmitCmd() *cobra.Command {
	var answers map[string]string
	var pasteFile string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Store questionnaire answers or a pasted analysis for `analyze run`",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := engine.PendingInput{Method: engine.InputQuestionnaire, Answers: answers}
			if pasteFile != "" {
				text, err := readInput(cmd, pasteFile)
				if err != nil {
					return err
				}
				in = engine.PendingInput{Method: engine.InputGPTPaste, Text: text}
			}

			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.SubmitPendingAnalysis(ctx, user.ID, in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Saved %s input. Run `gq analyze run` to assign stats.\n", ui.IconDone, in.Method)
			return nil
		},
	}

	cmd.Flags().StringToStringVarP(&answers, "answer", "a", nil, "Questionnaire answer as key=value (repeatable)")
	cmd.Flags().StringVar(&pasteFile, "paste-file", "", "File holding a pasted AI self-analysis (- for stdin)")
	cmd.MarkFlagsMutuallyExclusive("answer", "paste-file")
	cmd.MarkFlagsOneRequired("answer", "paste-file")

	return cmd
}

func newAnalyzeRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Analyze the pending submission and assign initial stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.AnalyzePending(ctx, user.ID)
			if err != nil {
				return err
			}
			printAnalysis(cmd.OutOrStdout(), svc, res)
			return nil
		},
	}
}

func newAnalyzeIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file|->",
		Short: "Assign initial stats from raw analysis output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()
			svc, user, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.IngestInitialAnalysis(ctx, user.ID, raw)
			if err != nil {
				return err
			}
			printAnalysis(cmd.OutOrStdout(), svc, res)
			return nil
		},
	}
}

func printAnalysis(out io.Writer, svc *engine.Service, res engine.AnalysisResult) {
	fmt.Fprintln(out, ui.Heading(ui.IconRobot, "Initial stats assigned"))
	if res.UsedFallback {
		fmt.Fprintln(out, ui.Warn.Render(ui.IconWarn+" analysis unavailable; default stats were used"))
	}
	if res.Summary != "" {
		fmt.Fprintln(out, res.Summary)
	}
	fmt.Fprintln(out, "")
	printStats(out, res.Stats, svc.Policy().Progress(res.Stats))

	if len(res.StatExplanations) > 0 {
		fmt.Fprintln(out, "")
		names := make([]string, 0, len(res.StatExplanations))
		for n := range res.StatExplanations {
			names = append(names, string(n))
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(out, "%s %s\n", ui.Key.Render(n+":"), res.StatExplanations[engine.StatName(n)])
		}
	}
}

// readInput reads a whole file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
