package session

import "time"

// Summary holds the data displayed at the end of a practice session.
type Summary struct {
	Duration        time.Duration
	TotalQuestions  int
	TotalCorrect    int
	Accuracy        float64
	TypeResults     []TypeProgress
	AttentionScore  float64
	EngagementScore float64
	MathFluency     float64
	Valid           bool
	Flags           []string
}

// BuildSummary creates a Summary from a session record.
func BuildSummary(r Record) *Summary {
	correct := 0
	for _, a := range r.Answers {
		if a.Correct {
			correct++
		}
	}

	flags := make([]string, len(r.Quality.QualityFlags))
	for i, f := range r.Quality.QualityFlags {
		flags[i] = string(f)
	}

	return &Summary{
		Duration:        time.Duration(r.DurationSecs * float64(time.Second)),
		TotalQuestions:  r.TaskCount,
		TotalCorrect:    correct,
		Accuracy:        r.Accuracy,
		TypeResults:     r.ByType,
		AttentionScore:  r.Engagement.AttentionScore,
		EngagementScore: r.Engagement.EngagementScore,
		MathFluency:     r.Estimate.MathFluency,
		Valid:           r.Quality.IsValidSession,
		Flags:           flags,
	}
}
