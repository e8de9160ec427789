package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aranyoray/studybot/internal/logging"
	"github.com/aranyoray/studybot/internal/practice"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Start a practice session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		questions, _ := cmd.Flags().GetInt("questions")

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		// Console output would draw over the full-screen UI.
		tuiLog := zap.NewNop()
		if cfg.LogFile != "" {
			tuiLog, err = logging.New(logging.Options{Format: "json", Level: cfg.LogLevel, File: cfg.LogFile, Output: zapcore.AddSync(io.Discard)})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
		}
		log = tuiLog

		ctx := cmd.Context()
		res, err := practice.Run(ctx, practice.Options{
			Store:        s,
			Coach:        newCoach(ctx, s),
			UserID:       user,
			MaxQuestions: questions,
			Log:          tuiLog,
		})
		if errors.Is(err, practice.ErrAborted) {
			fmt.Println("Session ended without saving.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Println(practice.RenderSummary(res))
		return nil
	},
}

func init() {
	practiceCmd.Flags().StringP("user", "u", "local", "Learner id")
	practiceCmd.Flags().IntP("questions", "n", 0, "End after this many answers (0 = profile session length)")
}
