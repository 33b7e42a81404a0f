package root

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"growthquest/internal/config"
	"growthquest/internal/engine"
	"growthquest/internal/ui"
)

const Version = "0.1.0"

var (
	flagDB   string
	flagUser string

	cfg    *config.Config
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:           "gq",
	Short:         "GrowthQuest: stats from self-analysis, growth from real-life quests",
	Long:          "GrowthQuest turns a self-analysis into seven personal stats and grows them through quests you complete.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		if flagDB != "" {
			c.DBPath = flagDB
		}
		if flagUser != "" {
			c.User = flagUser
		}
		cfg = c
		logger = newLogger(c)
		return nil
	},
}

func newLogger(c *config.Config) zerolog.Logger {
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if c.Development() {
		l = l.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if level, err := zerolog.ParseLevel(c.LogLevel); err == nil {
		l = l.Level(level)
	}
	return l
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default $GQ_DB_PATH or ~/.growthquest.db)")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "Username to act as (default $GQ_USER or main)")

	rootCmd.AddCommand(
		newStatusCmd(),
		newAnalyzeCmd(),
		newQuestCmd(),
		newLevelUpCmd(),
		newEventsCmd(),
		newAchievementsCmd(),
		newGrantCmd(),
		newBoardCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+errorLine(err)))
		os.Exit(1)
	}
}

// errorLine prefixes service errors with their kind.
func errorLine(err error) string {
	var k interface{ ErrorKind() engine.ErrorKind }
	if errors.As(err, &k) {
		return fmt.Sprintf("[%s] %s", k.ErrorKind(), err.Error())
	}
	return err.Error()
}
