package progress

// BaseXP returns XP for a correct answer at a difficulty (0–100).
func BaseXP(difficulty float64) int {
	switch {
	case difficulty <= 20:
		return 5
	case difficulty <= 40:
		return 8
	case difficulty <= 60:
		return 10
	case difficulty <= 80:
		return 13
	default:
		return 16
	}
}

// ChallengeBonus adds XP when a question is above the learner's fluency.
func ChallengeBonus(fluency, difficulty float64) int {
	gap := difficulty - fluency
	switch {
	case gap <= 0:
		return 0
	case gap <= 10:
		return 2
	case gap <= 20:
		return 5
	default:
		return 8
	}
}

// ComboXP returns bonus XP for the n-th consecutive correct answer.
func ComboXP(consecutive int) int {
	switch {
	case consecutive < 3:
		return 0
	case consecutive == 3:
		return 3
	case consecutive == 4:
		return 5
	case consecutive == 5:
		return 8
	default:
		return 10
	}
}

// CompletionXP returns the bonus for finishing a session.
func CompletionXP(correct, total int) int {
	if total == 0 {
		return 0
	}
	if correct == total {
		return 25
	}
	if float64(correct)/float64(total) >= 0.8 {
		return 10
	}
	return 0
}

// LevelForXP returns the level reached with xp total experience.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return 1 + xp/XPPerLevel
}
