package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aranyoray/studybot/internal/config"
	"github.com/aranyoray/studybot/internal/logging"
	"github.com/aranyoray/studybot/internal/store"
)

var (
	cfg config.Config
	log = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "studybot",
	Short: "Engagement-aware math practice",
	Long: "StudyBot tracks attention and engagement while learners practice math,\n" +
		"schedules breaks for their profile and exports anonymized research data.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if p, _ := cmd.Flags().GetString("db"); p != "" {
			cfg.DB = p
		}
		if d, _ := cmd.Flags().GetString("driver"); d != "" {
			cfg.DBDriver = d
		}
		log, err = logging.New(cfg.Logging())
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database file or DSN (overrides STUDYBOT_DB)")
	rootCmd.PersistentFlags().String("driver", "", "Database driver: sqlite or postgres (overrides STUDYBOT_DB_DRIVER)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(thresholdsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// openStore opens the configured database, creating the SQLite directory
// when needed.
func openStore() (*store.Store, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	s, err := store.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
