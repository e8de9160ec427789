package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aranyoray/studybot/internal/research"
	"github.com/aranyoray/studybot/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export anonymized session data for research",
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		format, err := research.ParseFormat(formatName)
		if err != nil {
			return err
		}
		opts, err := exportRange(from, to)
		if err != nil {
			return err
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		records, err := s.SessionRepo().List(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		collector, err := research.NewCollector([]byte(cfg.ResearchSalt))
		if err != nil {
			return fmt.Errorf("init research collector: %w", err)
		}
		if cfg.ResearchSalt == "" {
			log.Warn("STUDYBOT_RESEARCH_SALT is not set; pseudonyms will not match other exports")
		}

		var w io.Writer = os.Stdout
		if out != "" && out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()
			w = f
		}

		rows := collector.Rows(records)
		if err := research.Write(w, format, rows); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		if w != os.Stdout {
			fmt.Fprintf(os.Stderr, "Exported %d sessions to %s\n", len(rows), out)
		}
		return nil
	},
}

// exportRange parses the --from/--to dates (YYYY-MM-DD). The end date is
// inclusive.
func exportRange(from, to string) (store.QueryOpts, error) {
	var opts store.QueryOpts
	if from != "" {
		t, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return opts, fmt.Errorf("invalid --from %q: %w", from, err)
		}
		opts.From = t
	}
	if to != "" {
		t, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return opts, fmt.Errorf("invalid --to %q: %w", to, err)
		}
		opts.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	return opts, nil
}

func init() {
	exportCmd.Flags().StringP("format", "f", "csv", "Output format: csv or json")
	exportCmd.Flags().StringP("out", "o", "", "Output file (default stdout)")
	exportCmd.Flags().String("from", "", "Only sessions starting on or after this date (YYYY-MM-DD)")
	exportCmd.Flags().String("to", "", "Only sessions starting on or before this date (YYYY-MM-DD)")
}
