package practice

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/aranyoray/studybot/internal/ui/components"
	"github.com/aranyoray/studybot/internal/ui/layout"
	"github.com/aranyoray/studybot/internal/ui/theme"
)

func (m *Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	v.MouseMode = tea.MouseModeAllMotion
	v.ReportFocus = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	var st layout.Status
	if m.sess != nil {
		st = layout.Status{
			Level:    m.sess.Monitor().Level(),
			Answered: m.sess.AnswerCount(),
			Elapsed:  m.sess.Monitor().MinutesElapsed(),
		}
	}
	header := layout.RenderHeader(m.title(), st, m.width)
	footer := layout.RenderFooter(m.keyHints(), m.width)
	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	body := layout.Center(m.content(m.width), m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, body, footer, m.width, m.height))
	return v
}

func (m *Model) title() string {
	switch m.phase {
	case phaseCheck:
		return "Quick check"
	case phaseBreak:
		return "Break time"
	case phaseSummary:
		return "Session complete"
	}
	return "Practice"
}

func (m *Model) keyHints() []layout.KeyHint {
	switch m.phase {
	case phaseQuestion:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Submit"},
			{Key: "Tab", Description: "Skip"},
			{Key: "Esc", Description: "End"},
		}
	case phaseCheck:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Submit"},
			{Key: "Esc", Description: "End"},
		}
	case phaseFeedback:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	case phaseBreak:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Resume when done"},
			{Key: "S", Description: "Skip break"},
		}
	case phaseQuitConfirm:
		return []layout.KeyHint{
			{Key: "Y", Description: "End session"},
			{Key: "N", Description: "Keep going"},
		}
	case phaseSummary, phaseError:
		return []layout.KeyHint{{Key: "Enter", Description: "Exit"}}
	}
	return []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
}

func (m *Model) content(width int) string {
	switch m.phase {
	case phaseLoading:
		return theme.Hint.Render("Preparing your session...")
	case phaseQuestion:
		return m.renderPrompt(m.question.Text)
	case phaseCheck:
		return m.renderPrompt(m.check.Question)
	case phaseFeedback:
		return m.renderFeedback()
	case phaseBreak:
		return m.renderBreak(width)
	case phaseQuitConfirm:
		return renderQuitConfirm()
	case phaseSaving:
		return theme.Hint.Render("Saving your session...")
	case phaseSummary:
		return RenderSummary(m.result)
	case phaseError:
		return lipgloss.NewStyle().Foreground(theme.Error).
			Render(fmt.Sprintf("Error: %v\n\nPress Enter to exit.", m.err))
	}
	return ""
}

func (m *Model) renderPrompt(prompt string) string {
	var b strings.Builder
	b.WriteString(theme.Question.Render(prompt))
	b.WriteString("\n\n")
	if m.usingChoice {
		b.WriteString(m.choice.View())
		b.WriteString("\n\n")
		b.WriteString(theme.Hint.Render("Pick with a number or the arrows + Enter"))
	} else {
		b.WriteString("Answer: " + m.input.View())
	}
	return theme.Card.Render(b.String())
}

func (m *Model) renderFeedback() string {
	if m.lastCorrect {
		return theme.Correct.Render("Correct!") + "\n\n" +
			theme.Hint.Render("Press any key to continue...")
	}
	return theme.Incorrect.Render("Not quite") + "\n" +
		theme.Body.Render(fmt.Sprintf("The answer was %s", m.question.Answer)) + "\n\n" +
		theme.Hint.Render("Press any key to continue...")
}

func (m *Model) renderBreak(width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Time for a short break"))
	b.WriteString("\n\n")
	if m.breakMsg != nil {
		b.WriteString(theme.Body.Render(m.breakMsg.Text))
		if m.breakMsg.Tip != "" {
			b.WriteString("\n")
			b.WriteString(theme.Hint.Render(m.breakMsg.Tip))
		}
		b.WriteString("\n\n")
	}

	th := m.sess.Monitor().Thresholds()
	total := time.Duration(th.BreakDuration) * time.Minute
	left := max(m.breakUntil.Sub(m.now()), 0)
	if left > 0 {
		bar := components.Meter{
			Label:    fmt.Sprintf("%d:%02d", int(left.Minutes()), int(left.Seconds())%60),
			Fraction: 1 - float64(left)/float64(total),
			Width:    min(width-8, 50),
		}
		b.WriteString(bar.View())
	} else {
		b.WriteString(theme.Correct.Render("Ready when you are. Press Enter to continue."))
	}
	return b.String()
}

func renderQuitConfirm() string {
	return theme.Title.Render("End session now?") + "\n" +
		theme.Hint.Render("Your answers so far will be saved.") + "\n\n" +
		lipgloss.NewStyle().Foreground(theme.Success).Render("[Y] Yes, end session") + "\n" +
		lipgloss.NewStyle().Foreground(theme.Primary).Render("[N] No, keep going")
}

// RenderSummary formats a finished session for the terminal.
func RenderSummary(r *Result) string {
	if r == nil || r.Summary == nil {
		return ""
	}
	sum := r.Summary

	var b strings.Builder
	b.WriteString(theme.Title.Render("Session complete!"))
	b.WriteString("\n\n")

	mins := int(sum.Duration.Minutes())
	secs := int(sum.Duration.Seconds()) % 60
	fmt.Fprintf(&b, "Time        %d:%02d\n", mins, secs)
	fmt.Fprintf(&b, "Answered    %d (%d correct, %.0f%%)\n", sum.TotalQuestions, sum.TotalCorrect, sum.Accuracy*100)
	fmt.Fprintf(&b, "Attention   %.0f\n", sum.AttentionScore)
	fmt.Fprintf(&b, "Engagement  %.0f\n", sum.EngagementScore)
	fmt.Fprintf(&b, "Fluency     %.0f\n", sum.MathFluency)

	if len(sum.TypeResults) > 0 {
		b.WriteString("\n")
		for _, tr := range sum.TypeResults {
			fmt.Fprintf(&b, "  %-12s %d/%d\n", tr.Type, tr.Correct, tr.Attempts)
		}
	}

	b.WriteString("\n")
	if sum.Valid {
		fmt.Fprintf(&b, "%s  +%d XP, +%d coins, level %d\n",
			theme.Correct.Render("Saved"), r.Award.XP, r.Award.Coins, r.Progress.Level)
		for _, badge := range r.Award.Badges {
			fmt.Fprintf(&b, "New badge: %s\n", badge)
		}
	} else {
		fmt.Fprintf(&b, "%s  %s\n", theme.Incorrect.Render("Not scored"), strings.Join(sum.Flags, ", "))
	}

	if r.Coach.Text != "" {
		b.WriteString("\n")
		b.WriteString(theme.Body.Render(r.Coach.Text))
		if r.Coach.Tip != "" {
			b.WriteString("\n")
			b.WriteString(theme.Hint.Render(r.Coach.Tip))
		}
	}
	return b.String()
}
