package skill

import (
	"math"

	"github.com/aranyoray/studybot/internal/engagement"
)

const (
	// Alpha is the EMA weight given to the newest performance score.
	Alpha = 0.3

	// ConfidenceStep is the confidence gained per update.
	ConfidenceStep = 0.1

	// SpeedReferenceMs is the response time at which the speed factor
	// reaches zero.
	SpeedReferenceMs = 10000.0

	// RecentWindow is the number of recent answers that nudge difficulty.
	RecentWindow = 5

	minDifficulty = 10.0
	maxDifficulty = 95.0

	baseTimeLimitMs = 20000.0
	minTimeLimitMs  = 5000
	maxTimeLimitMs  = 30000
)

// Estimate is the per-learner cognitive state vector. Every score is 0–100
// and Confidence is 0–1.
type Estimate struct {
	WorkingMemory     float64 `json:"workingMemory"`
	Attention         float64 `json:"attention"`
	ProcessingSpeed   float64 `json:"processingSpeed"`
	ExecutiveFunction float64 `json:"executiveFunction"`
	MathFluency       float64 `json:"mathFluency"`
	Confidence        float64 `json:"confidence"`
}

// DefaultEstimate returns the starting estimate for a learner with no
// diagnostic.
func DefaultEstimate() Estimate {
	return Estimate{
		WorkingMemory:     50,
		Attention:         50,
		ProcessingSpeed:   50,
		ExecutiveFunction: 50,
		MathFluency:       50,
		Confidence:        0,
	}
}

// Diagnostic holds the sub-scores produced by the diagnostic assessment.
type Diagnostic struct {
	WorkingMemory     float64 `json:"workingMemory"`
	Attention         float64 `json:"attention"`
	ProcessingSpeed   float64 `json:"processingSpeed"`
	ExecutiveFunction float64 `json:"executiveFunction"`
}

// InitializeFromDiagnostic seeds an estimate from a diagnostic result.
func InitializeFromDiagnostic(d Diagnostic) Estimate {
	e := Estimate{
		WorkingMemory:     clamp(d.WorkingMemory, 0, 100),
		Attention:         clamp(d.Attention, 0, 100),
		ProcessingSpeed:   clamp(d.ProcessingSpeed, 0, 100),
		ExecutiveFunction: clamp(d.ExecutiveFunction, 0, 100),
		Confidence:        0.5,
	}
	e.MathFluency = 0.3*e.WorkingMemory + 0.2*e.Attention + 0.3*e.ProcessingSpeed + 0.2*e.ExecutiveFunction
	return e
}

// Performance summarises the answers since the last update.
type Performance struct {
	Correct           int     `json:"correct"`
	Total             int     `json:"total"`
	AvgResponseTimeMs float64 `json:"avgResponseTime"`
}

// PerformanceScore returns the 0–100 score the EMA moves toward, and false
// when no questions were answered.
func PerformanceScore(p Performance) (float64, bool) {
	if p.Total <= 0 {
		return 0, false
	}
	accuracy := clamp(float64(p.Correct)/float64(p.Total), 0, 1)
	speed := clamp(1-p.AvgResponseTimeMs/SpeedReferenceMs, 0, 1)
	return (0.6*accuracy + 0.4*speed) * 100, true
}

// UpdateEstimate returns a new estimate with math fluency moved toward the
// performance score. An empty performance returns current unchanged.
func UpdateEstimate(current Estimate, p Performance) Estimate {
	score, ok := PerformanceScore(p)
	if !ok {
		return current
	}
	next := current
	next.MathFluency = clamp(current.MathFluency*(1-Alpha)+score*Alpha, 0, 100)
	next.Confidence = math.Min(1, clamp(current.Confidence, 0, 1)+ConfidenceStep)
	return next
}

// OptimalDifficulty targets material slightly above current fluency.
func OptimalDifficulty(e Estimate) float64 {
	return clamp(e.MathFluency*1.1, minDifficulty, maxDifficulty)
}

// QuestionType is the kind of problem presented at a difficulty.
type QuestionType string

const (
	TypeRecognition QuestionType = "recognition"
	TypeAddition    QuestionType = "addition"
	TypeSubtraction QuestionType = "subtraction"
	TypeSequencing  QuestionType = "sequencing"
)

// TypeForDifficulty maps a difficulty onto a question type.
func TypeForDifficulty(d float64) QuestionType {
	switch {
	case d < 30:
		return TypeRecognition
	case d < 50:
		return TypeAddition
	case d < 70:
		return TypeSubtraction
	default:
		return TypeSequencing
	}
}

// QuestionParams describes the next question to present.
type QuestionParams struct {
	Difficulty  float64      `json:"difficulty"`
	Type        QuestionType `json:"type"`
	TimeLimitMs int          `json:"timeLimit"`
}

// NextQuestion derives the next question's parameters. recent holds
// answer correctness, oldest first; only the last RecentWindow count.
func NextQuestion(e Estimate, recent []bool) QuestionParams {
	target := OptimalDifficulty(e)

	if len(recent) > RecentWindow {
		recent = recent[len(recent)-RecentWindow:]
	}
	if len(recent) > 0 {
		correct := 0
		for _, ok := range recent {
			if ok {
				correct++
			}
		}
		acc := float64(correct) / float64(len(recent))
		switch {
		case acc > 0.8:
			target += 5
		case acc < 0.5:
			target -= 5
		}
	}
	target = clamp(target, 0, 100)

	return QuestionParams{
		Difficulty:  target,
		Type:        TypeForDifficulty(target),
		TimeLimitMs: TimeLimit(e),
	}
}

// TimeLimit scales the per-question time limit with processing speed.
func TimeLimit(e Estimate) int {
	ms := baseTimeLimitMs * (1.5 - clamp(e.ProcessingSpeed, 0, 100)/100)
	return int(clamp(math.Round(ms), minTimeLimitMs, maxTimeLimitMs))
}

func clamp(v, lo, hi float64) float64 {
	return engagement.Clamp(v, lo, hi)
}
