// Package quality scores embedded attention checks and response timing to
// decide whether a session's data can be trusted.
package quality

import (
	"math"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	// MinRequiredChecks is the number of passed checks a valid session needs.
	MinRequiredChecks = 2

	// MinValidScore is the lowest attention score of a valid session.
	MinValidScore = 60.0

	// FlagPenalty is subtracted from the score for every raised flag.
	FlagPenalty = 10.0

	maxResponses    = 20
	maxInteractions = 50

	suspiciousMinSamples = 5
	suspiciousMaxCV      = 0.1

	rapidClickWindow = 500 * time.Millisecond

	anomalousMinSamples = 3
	anomalousFastMs     = 300.0
	anomalousSlowMs     = 30000.0

	minInteractions = 5
)

// Flag names a data-quality problem.
type Flag string

const (
	FlagFailedAttentionChecks Flag = "FAILED_ATTENTION_CHECKS"
	FlagSuspiciousPattern     Flag = "SUSPICIOUS_PATTERN"
	FlagRapidClicking         Flag = "RAPID_CLICKING"
	FlagAnomalousSpeed        Flag = "ANOMALOUS_SPEED"
	FlagLowInteraction        Flag = "LOW_INTERACTION"
)

// Critical reports whether a flag invalidates a session regardless of score.
// Only failed checks and bot-like regularity are critical.
func (f Flag) Critical() bool {
	return f == FlagFailedAttentionChecks || f == FlagSuspiciousPattern
}

// CheckResult is one administered attention check.
type CheckResult struct {
	Question       string    `json:"question,omitempty"`
	UserAnswer     string    `json:"userAnswer"`
	CorrectAnswer  string    `json:"correctAnswer"`
	Passed         bool      `json:"passed"`
	ResponseTimeMs float64   `json:"responseTime"`
	Type           CheckType `json:"type"`
	At             time.Time `json:"timestamp"`
}

// Metrics is the session quality verdict.
type Metrics struct {
	AttentionChecksPassed int     `json:"attentionChecksPassed"`
	AttentionChecksTotal  int     `json:"attentionChecksTotal"`
	AttentionScore        float64 `json:"attentionScore"`
	AverageResponseTimeMs float64 `json:"averageResponseTime"`
	ResponseTimeCV        float64 `json:"responseTimeCV"`
	InteractionCount      int     `json:"interactionCount"`
	QualityFlags          []Flag  `json:"qualityFlags"`
	IsValidSession        bool    `json:"isValidSession"`
}

// HasFlag reports whether f was raised.
func (m Metrics) HasFlag(f Flag) bool {
	for _, q := range m.QualityFlags {
		if q == f {
			return true
		}
	}
	return false
}

// Validator collects attention-check outcomes, response times and
// interaction timestamps for one session. It is single-owner.
type Validator struct {
	now func() time.Time
	rng *rand.Rand

	checks            []CheckResult
	responses         []float64
	interactions      []time.Time
	totalInteractions int
}

// NewValidator creates a Validator. A nil clock uses time.Now and a nil
// rng uses the global source.
func NewValidator(now func() time.Time, rng *rand.Rand) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now, rng: rng}
}

func (v *Validator) intN(n int) int {
	if v.rng != nil {
		return v.rng.IntN(n)
	}
	return rand.IntN(n)
}

// NextCheck picks an attention check: one of the simple pool questions or
// the catch question.
func (v *Validator) NextCheck() Check {
	i := v.intN(len(checkPool) + 1)
	if i == len(checkPool) {
		return catchCheck
	}
	return checkPool[i]
}

// RecordCheck grades and logs one attention check. Answers are compared
// case-insensitively after trimming whitespace.
func (v *Validator) RecordCheck(userAnswer, correctAnswer string, responseTimeMs float64, typ CheckType) CheckResult {
	r := CheckResult{
		UserAnswer:     userAnswer,
		CorrectAnswer:  correctAnswer,
		Passed:         strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(correctAnswer)),
		ResponseTimeMs: responseTimeMs,
		Type:           typ,
		At:             v.now(),
	}
	v.checks = append(v.checks, r)
	return r
}

// RecordResponse logs a response time, keeping the last 20.
func (v *Validator) RecordResponse(ms float64) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return
	}
	v.responses = append(v.responses, ms)
	if len(v.responses) > maxResponses {
		v.responses = v.responses[len(v.responses)-maxResponses:]
	}
}

// RecordInteraction logs an interaction at the given time, keeping the
// last 50 timestamps. The zero time means now.
func (v *Validator) RecordInteraction(at time.Time) {
	if at.IsZero() {
		at = v.now()
	}
	v.totalInteractions++
	v.interactions = append(v.interactions, at)
	if len(v.interactions) > maxInteractions {
		v.interactions = v.interactions[len(v.interactions)-maxInteractions:]
	}
}

// Checks returns a copy of the check log.
func (v *Validator) Checks() []CheckResult {
	out := make([]CheckResult, len(v.checks))
	copy(out, v.checks)
	return out
}

// ResponseTimes returns a copy of the retained response times.
func (v *Validator) ResponseTimes() []float64 {
	out := make([]float64, len(v.responses))
	copy(out, v.responses)
	return out
}

// DetectSuspiciousPatterns reports bot-like regularity: a coefficient of
// variation below 0.1 over at least five response times.
func (v *Validator) DetectSuspiciousPatterns() bool {
	if len(v.responses) < suspiciousMinSamples {
		return false
	}
	mean, sd := meanStdDev(v.responses)
	if mean <= 0 {
		return false
	}
	return sd/mean < suspiciousMaxCV
}

// DetectRapidClicking reports whether the last three interactions happened
// within 500ms.
func (v *Validator) DetectRapidClicking() bool {
	n := len(v.interactions)
	if n < 3 {
		return false
	}
	return v.interactions[n-1].Sub(v.interactions[n-3]) < rapidClickWindow
}

// DetectAnomalousSpeed reports a mean response time that is implausibly
// fast or slow over at least three samples.
func (v *Validator) DetectAnomalousSpeed() bool {
	if len(v.responses) < anomalousMinSamples {
		return false
	}
	mean, _ := meanStdDev(v.responses)
	return mean < anomalousFastMs || mean > anomalousSlowMs
}

// DetectLowInteraction reports fewer than five interactions in total.
func (v *Validator) DetectLowInteraction() bool {
	return v.totalInteractions < minInteractions
}

// Evaluate computes the session quality verdict. A session is valid only
// when its score reaches 60 and no critical flag was raised.
func (v *Validator) Evaluate() Metrics {
	passed := 0
	for _, c := range v.checks {
		if c.Passed {
			passed++
		}
	}

	m := Metrics{
		AttentionChecksPassed: passed,
		AttentionChecksTotal:  len(v.checks),
		InteractionCount:      v.totalInteractions,
		QualityFlags:          []Flag{},
	}
	if len(v.responses) > 0 {
		mean, sd := meanStdDev(v.responses)
		m.AverageResponseTimeMs = mean
		if mean > 0 {
			m.ResponseTimeCV = sd / mean
		}
	}

	if passed < MinRequiredChecks {
		m.QualityFlags = append(m.QualityFlags, FlagFailedAttentionChecks)
	}
	if v.DetectSuspiciousPatterns() {
		m.QualityFlags = append(m.QualityFlags, FlagSuspiciousPattern)
	}
	if v.DetectRapidClicking() {
		m.QualityFlags = append(m.QualityFlags, FlagRapidClicking)
	}
	if v.DetectAnomalousSpeed() {
		m.QualityFlags = append(m.QualityFlags, FlagAnomalousSpeed)
	}
	if v.DetectLowInteraction() {
		m.QualityFlags = append(m.QualityFlags, FlagLowInteraction)
	}

	base := 0.0
	if len(v.checks) > 0 {
		base = 100 * float64(passed) / float64(len(v.checks))
	}
	m.AttentionScore = math.Max(0, base-FlagPenalty*float64(len(m.QualityFlags)))

	m.IsValidSession = m.AttentionScore >= MinValidScore
	for _, f := range m.QualityFlags {
		if f.Critical() {
			m.IsValidSession = false
		}
	}
	return m
}

// Reset clears all recorded data.
func (v *Validator) Reset() {
	v.checks = nil
	v.responses = nil
	v.interactions = nil
	v.totalInteractions = 0
}

func meanStdDev(xs []float64) (mean, sd float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}
