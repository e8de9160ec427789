package components

import (
	"math"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/aranyoray/studybot/internal/ui/theme"
)

// partial holds the left-aligned block glyphs for 1/8 to 7/8 of a cell.
var partial = []string{"", "▏", "▎", "▍", "▌", "▋", "▊", "▉"}

var (
	meterFill  = lipgloss.NewStyle().Foreground(theme.Secondary)
	meterTrack = lipgloss.NewStyle().Foreground(theme.Border)
)

// Meter is a gauge filled to Fraction (0–1), used for the break countdown.
// The fill moves in eighths of a cell. View is exactly Width cells wide,
// label included, with a floor of four cells for the gauge.
type Meter struct {
	Label    string
	Fraction float64
	Width    int
}

func (m Meter) View() string {
	var label string
	if m.Label != "" {
		label = theme.Body.Render(m.Label) + " "
	}
	cells := max(m.Width-lipgloss.Width(label), 4)

	f := m.Fraction
	if math.IsNaN(f) {
		f = 0
	}
	f = math.Min(math.Max(f, 0), 1)

	eighths := int(f * float64(cells*8))
	full, rem := eighths/8, eighths%8
	fill := strings.Repeat("█", full) + partial[rem]
	used := full
	if rem > 0 {
		used++
	}
	return label + meterFill.Render(fill) + meterTrack.Render(strings.Repeat("░", cells-used))
}
