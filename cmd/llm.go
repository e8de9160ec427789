package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aranyoray/studybot/internal/llm"
	"github.com/aranyoray/studybot/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect coaching LLM calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		return withStore(func(s *store.Store) error {
			events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tPURPOSE\tMODEL\tIN\tOUT\tMS\tSTATUS")
			shown := 0
			for _, e := range events {
				if purpose != "" && e.Purpose != purpose {
					continue
				}
				status := "ok"
				if !e.Success {
					status = "failed"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					e.ID, e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Purpose,
					truncate(e.Model, 28), e.InputTokens, e.OutputTokens, e.LatencyMs, status)
				shown++
			}
			if shown == 0 {
				fmt.Println("No LLM calls recorded.")
				return nil
			}
			return tw.Flush()
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}

		return withStore(func(s *store.Store) error {
			e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no LLM call with id %d", id)
			}
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}

			fmt.Printf("Call %d at %s\n", e.ID, e.Timestamp.Local().Format("2006-01-02 15:04:05"))
			fmt.Printf("%s / %s for %s\n", e.Provider, e.Model, e.Purpose)
			fmt.Printf("%d tokens in, %d out, %dms\n", e.InputTokens, e.OutputTokens, e.LatencyMs)
			if e.ErrorMessage != "" {
				fmt.Printf("Error: %s\n", e.ErrorMessage)
			}
			section("Prompt", e.RequestBody)
			section("Reply", e.ResponseBody)
			return nil
		})
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.Store) error {
			ctx := cmd.Context()
			byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
			if err != nil {
				return fmt.Errorf("usage by purpose: %w", err)
			}
			if len(byPurpose) == 0 {
				fmt.Println("No LLM usage recorded yet.")
				return nil
			}
			byModel, err := s.EventRepo().LLMUsageByModel(ctx)
			if err != nil {
				return fmt.Errorf("usage by model: %w", err)
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "PURPOSE\tCALLS\tINPUT\tOUTPUT\tAVG MS\t")
			var calls, in, out int
			for _, u := range byPurpose {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t\n", u.Key, u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
				calls += u.Calls
				in += u.InputTokens
				out += u.OutputTokens
			}
			fmt.Fprintf(tw, "total\t%d\t%d\t%d\t\t\n", calls, in, out)
			fmt.Fprintln(tw, "\t\t\t\t\t")

			var total float64
			var unpriced []string
			fmt.Fprintln(tw, "MODEL\tCALLS\tINPUT\tOUTPUT\tUSD\t")
			for _, u := range byModel {
				cost := "?"
				if c := llm.LookupCost(u.Key); c != nil {
					usd := c.Cost(u.InputTokens, u.OutputTokens)
					total += usd
					cost = formatCost(usd)
				} else {
					unpriced = append(unpriced, u.Key)
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t\n", truncate(u.Key, 32), u.Calls, u.InputTokens, u.OutputTokens, cost)
			}
			fmt.Fprintf(tw, "total\t\t\t\t%s\t\n", formatCost(total))
			if err := tw.Flush(); err != nil {
				return err
			}
			if len(unpriced) > 0 {
				fmt.Printf("\nNo pricing for %s; the total leaves them out.\n", strings.Join(unpriced, ", "))
			}
			return nil
		})
	},
}

func withStore(fn func(*store.Store) error) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func section(title, body string) {
	fmt.Printf("\n== %s ==\n", title)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Println(body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show one purpose (coach-break or coach-session-end)")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
