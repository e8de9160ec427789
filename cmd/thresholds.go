package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/store"
)

var thresholdsCmd = &cobra.Command{
	Use:   "thresholds [condition]",
	Short: "Show threshold profiles, or the profile stored for a learner",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		if user != "" {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := s.ProfileRepo().Get(cmd.Context(), user)
			if errors.Is(err, store.ErrNotFound) {
				fmt.Printf("No profile stored for %s; the typical profile applies.\n\n", user)
				printThresholds(fusion.DefaultThresholds())
				return nil
			}
			if err != nil {
				return fmt.Errorf("get profile: %w", err)
			}
			printThresholds(p.Thresholds)
			return nil
		}

		conditions := fusion.AllConditions
		if len(args) == 1 {
			th, ok := fusion.Profile(fusion.Condition(args[0]))
			if !ok {
				return fmt.Errorf("unknown condition %q", args[0])
			}
			printThresholds(th)
			return nil
		}
		for i, c := range conditions {
			if i > 0 {
				fmt.Println()
			}
			th, _ := fusion.Profile(c)
			printThresholds(th)
		}
		return nil
	},
}

func printThresholds(t fusion.Thresholds) {
	fmt.Println(strings.ToUpper(string(t.Condition)))
	fmt.Println(strings.Repeat("─", 40))
	fmt.Printf("%-22s %5.0f / %.0f\n", "Attention min/crit", t.MinAttentionScore, t.CriticalAttentionScore)
	fmt.Printf("%-22s %5.0f / %.0f\n", "Engagement min/crit", t.MinEngagementScore, t.CriticalEngagementScore)
	fmt.Printf("%-22s %5.0f / %.0f\n", "Frustration max/crit", t.MaxFrustrationLevel, t.CriticalFrustrationLevel)
	fmt.Printf("%-22s %5d min (max %d)\n", "Session", t.RecommendedSessionLength, t.MaxSessionLength)
	fmt.Printf("%-22s every %d min for %d min\n", "Breaks", t.BreakFrequency, t.BreakDuration)
	fmt.Printf("%-22s %5.0fs normal, %.0fs slow\n", "Response time", t.NormalResponseTime, t.SlowResponseTime)
	if t.Notes != "" {
		fmt.Println(t.Notes)
	}
}

func init() {
	thresholdsCmd.Flags().StringP("user", "u", "", "Show the stored profile for this learner")
}
