package coach

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a calm, supportive study coach for learners practising basic math. Some learners have ADHD, autism, dyslexia, dyscalculia or math anxiety. Keep language simple, concrete and kind. Never mention scores as failures, diagnoses or that you are monitoring them.`

func buildUserMessage(s Situation) string {
	var b strings.Builder

	switch s.Kind {
	case KindBreak:
		b.WriteString("The learner is about to take a break.\n")
		fmt.Fprintf(&b, "Break length: %d seconds\n", s.BreakSeconds)
	case KindSessionEnd:
		b.WriteString("The learner just finished a practice session.\n")
	}

	fmt.Fprintf(&b, "Minutes practised: %.0f\n", s.MinutesElapsed)
	fmt.Fprintf(&b, "Questions answered: %d\n", s.QuestionsAnswered)
	if s.QuestionsAnswered > 0 {
		fmt.Fprintf(&b, "Accuracy: %.0f%%\n", s.Accuracy*100)
	}
	if s.Level != "" {
		fmt.Fprintf(&b, "Engagement: %s\n", s.Level)
	}
	if s.Frustration != nil {
		fmt.Fprintf(&b, "Frustration (0-100): %.0f\n", *s.Frustration)
	}
	if s.Condition != "" {
		fmt.Fprintf(&b, "Learner profile: %s\n", s.Condition)
	}
	fmt.Fprintf(&b, "Tone: %s\n", s.Tone)

	b.WriteString(`
Instructions:
1. Write the message in the requested tone: encouraging means warm praise for effort, directive means clear calm next steps, neutral means plain and friendly.
2. Keep the message under 30 words.
3. Give one tip the learner can do right away.
4. Plain text only. No emoji, no markdown.`)

	return b.String()
}
