package research

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Format is a research export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates an export format name. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// Header is the CSV column order.
var Header = []string{
	"sessionId",
	"pseudoId",
	"startTime",
	"duration",
	"accuracy",
	"taskCount",
	"attentionScore",
	"engagementScore",
	"mathFluency",
	"qualityScore",
	"qualityFlags",
	"isValidSession",
}

// Write encodes rows in the given format.
func Write(w io.Writer, f Format, rows []Row) error {
	if f == FormatJSON {
		return WriteJSON(w, rows)
	}
	return WriteCSV(w, rows)
}

// WriteCSV writes rows as CSV with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.SessionID,
			r.PseudoID,
			r.StartTime.Format(time.RFC3339),
			formatFloat(r.DurationSecs),
			formatFloat(r.Accuracy),
			strconv.Itoa(r.TaskCount),
			formatFloat(r.AttentionScore),
			formatFloat(r.EngagementScore),
			formatFloat(r.MathFluency),
			formatFloat(r.QualityScore),
			r.QualityFlags,
			strconv.FormatBool(r.IsValidSession),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.SessionID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteJSON writes rows as an indented JSON array.
func WriteJSON(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode json rows: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
