package coach

import (
	"fmt"

	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/skill"
)

// Fallback returns a built-in message for s. It is deterministic.
func Fallback(s Situation) Message {
	m := Message{Source: SourceBuiltin, Tip: breakTip(s.Condition)}

	if s.Kind == KindBreak {
		mins := max(1, (s.BreakSeconds+59)/60)
		switch s.Tone {
		case skill.ToneEncouraging:
			m.Text = fmt.Sprintf("You've been working hard. Take %d minutes to rest, you've earned it.", mins)
		case skill.ToneDirective:
			m.Text = fmt.Sprintf("Pause here for %d minutes. We'll pick up with the next question after.", mins)
		default:
			m.Text = fmt.Sprintf("Time for a %d minute break.", mins)
		}
		return m
	}

	pct := int(s.Accuracy*100 + 0.5)
	switch {
	case s.QuestionsAnswered == 0:
		m.Text = "Thanks for stopping by. Come back when you're ready to try a few questions."
	case s.Tone == skill.ToneEncouraging:
		m.Text = fmt.Sprintf("Great effort! You answered %d questions today. Every one makes you stronger.", s.QuestionsAnswered)
	case s.Tone == skill.ToneDirective:
		m.Text = fmt.Sprintf("You got %d%% of %d questions. Next time, read each one twice before answering.", pct, s.QuestionsAnswered)
	default:
		m.Text = fmt.Sprintf("Session done: %d questions, %d%% correct.", s.QuestionsAnswered, pct)
	}
	m.Tip = sessionTip(s)
	return m
}

func breakTip(c fusion.Condition) string {
	switch c {
	case fusion.ConditionADHD:
		return "Stand up and stretch or walk around the room."
	case fusion.ConditionASD:
		return "Find a quiet spot and rest your eyes."
	case fusion.ConditionAnxiety:
		return "Breathe in for four counts and out for four counts."
	case fusion.ConditionDyslexia, fusion.ConditionDyscalculia:
		return "Look away from the screen at something far away."
	default:
		return "Get a drink of water and stretch."
	}
}

func sessionTip(s Situation) string {
	switch {
	case s.Frustration != nil && *s.Frustration > 60:
		return "Tomorrow, start with a few easy warm-up questions."
	case s.Accuracy >= 0.8:
		return "Try a slightly harder set next time."
	default:
		return "Short, regular practice works best."
	}
}
