// Package theme holds the terminal palette and shared lipgloss styles.
package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/aranyoray/studybot/internal/engagement"
)

// Calm palette: low saturation on a dark background so long sessions stay
// easy on the eyes.
var (
	Primary   = lipgloss.Color("#7C9CF5") // Soft Blue
	Secondary = lipgloss.Color("#5EC2B7") // Sea Green
	Accent    = lipgloss.Color("#F2B35B") // Warm Amber
	Success   = lipgloss.Color("#6CCB8A") // Green
	Error     = lipgloss.Color("#E57A7A") // Muted Red
	Text      = lipgloss.Color("#EEF2F7")
	TextDim   = lipgloss.Color("#9AA7B8")
	BgCard    = lipgloss.Color("#1F2733")
	Border    = lipgloss.Color("#3A4658")
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Question = lipgloss.NewStyle().
			Bold(true).
			Foreground(Text)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 3)
)

var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// LevelColor maps an engagement level to its indicator colour.
func LevelColor(l engagement.Level) color.Color {
	switch l {
	case engagement.LevelHigh:
		return Success
	case engagement.LevelMedium:
		return Secondary
	case engagement.LevelLow:
		return Accent
	case engagement.LevelCritical:
		return Error
	}
	return TextDim
}
