package progress

const (
	BadgeFirstSession   = "first-session"
	BadgePerfectSession = "perfect-session"
	BadgeFocusChampion  = "focus-champion"
	BadgeStreak5        = "streak-5"
	BadgeTenSessions    = "ten-sessions"
)

// BadgeDef describes a badge.
type BadgeDef struct {
	Name        string
	Description string
}

// Badges maps badge IDs to their definitions.
var Badges = map[string]BadgeDef{
	BadgeFirstSession:   {Name: "First Steps", Description: "Finish your first session"},
	BadgePerfectSession: {Name: "Flawless", Description: "Answer every question right (5 or more)"},
	BadgeFocusChampion:  {Name: "Focus Champion", Description: "Keep attention at 90 or above for a session"},
	BadgeStreak5:        {Name: "On a Roll", Description: "Get 5 answers right in a row"},
	BadgeTenSessions:    {Name: "Regular", Description: "Finish 10 sessions"},
}

const (
	perfectMinAnswers = 5
	focusChampion     = 90.0
)

// earnedBadges returns every badge the learner qualifies for after this
// session. The caller filters out those already held.
func earnedBadges(p Progress, r SessionResult, correct, bestCombo int) []string {
	var out []string
	if p.SessionsCompleted >= 1 {
		out = append(out, BadgeFirstSession)
	}
	if len(r.Answers) >= perfectMinAnswers && correct == len(r.Answers) {
		out = append(out, BadgePerfectSession)
	}
	if r.AttentionScore >= focusChampion {
		out = append(out, BadgeFocusChampion)
	}
	if bestCombo >= 5 {
		out = append(out, BadgeStreak5)
	}
	if p.SessionsCompleted >= 10 {
		out = append(out, BadgeTenSessions)
	}
	return out
}
