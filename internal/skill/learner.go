package skill

import (
	"math"
	"slices"
	"time"

	"github.com/aranyoray/studybot/internal/engagement"
)

const (
	// MaxHistory is the number of session summaries a LearnerModel keeps.
	MaxHistory = 30

	subSkillAlpha = 0.1

	// highAffect is the frustration/anxiety level treated as elevated.
	highAffect = 60.0
)

// FeedbackTone selects how coaching messages are phrased.
type FeedbackTone string

const (
	ToneEncouraging FeedbackTone = "encouraging"
	ToneDirective   FeedbackTone = "directive"
	ToneNeutral     FeedbackTone = "neutral"
)

// SkillProfile holds the five named sub-skills, 0–100 each.
type SkillProfile struct {
	NumberRecognition float64 `json:"numberRecognition"`
	Addition          float64 `json:"addition"`
	Subtraction       float64 `json:"subtraction"`
	Sequencing        float64 `json:"sequencing"`
	ProblemSolving    float64 `json:"problemSolving"`
}

// ErrorPattern is a recurring mistake.
type ErrorPattern struct {
	Type      string    `json:"type"`
	Frequency int       `json:"frequency"`
	LastSeen  time.Time `json:"lastSeen"`
	Context   string    `json:"context,omitempty"`
}

// ResponseMetrics is a running summary of response times in milliseconds.
type ResponseMetrics struct {
	Count       int     `json:"count"`
	Mean        float64 `json:"mean"`
	Variance    float64 `json:"variance"`
	Hesitations int     `json:"hesitationCount"`
}

// Observe folds one response time into the running mean and population
// variance (Welford).
func (r *ResponseMetrics) Observe(ms float64) {
	m2 := r.Variance * float64(r.Count)
	r.Count++
	delta := ms - r.Mean
	r.Mean += delta / float64(r.Count)
	m2 += delta * (ms - r.Mean)
	r.Variance = m2 / float64(r.Count)
}

// StdDev returns the standard deviation of observed response times.
func (r ResponseMetrics) StdDev() float64 {
	return math.Sqrt(r.Variance)
}

// MouseBehavior summarises pointer activity across sessions.
type MouseBehavior struct {
	TotalDistance    float64 `json:"totalDistance"`
	AvgPixelsPerMin  float64 `json:"avgPixelsPerMinute"`
	SessionsObserved int     `json:"sessionsObserved"`
}

// AffectiveState is the learner's emotional state as last observed.
type AffectiveState struct {
	Confidence     int     `json:"confidence"` // 1–10
	Frustration    float64 `json:"frustration"`
	Anxiety        float64 `json:"anxiety"`
	Engagement     float64 `json:"engagement"`
	AvoidanceCount int     `json:"avoidanceCount"`
}

// AdaptiveParams steer question selection and coaching.
type AdaptiveParams struct {
	CurrentDifficulty int          `json:"currentDifficulty"` // 1–10
	HintFrequency     float64      `json:"hintFrequency"`     // 0–1
	TaskPacing        float64      `json:"taskPacing"`        // 0.5–2.0
	FeedbackTone      FeedbackTone `json:"feedbackTone"`
}

// SessionSummary is one entry of the learner's session history.
type SessionSummary struct {
	SessionID         string    `json:"sessionId"`
	Date              time.Time `json:"date"`
	DurationSecs      int       `json:"duration"`
	QuestionsAnswered int       `json:"questionsAnswered"`
	Accuracy          float64   `json:"accuracy"`
	AttentionScore    float64   `json:"attentionScore"`
	EngagementScore   float64   `json:"engagementScore"`
	MathFluency       float64   `json:"mathFluency"`
}

// LearnerModel is the long-lived model of one learner, updated at the end
// of every session.
type LearnerModel struct {
	UserID        string           `json:"userId"`
	Skills        SkillProfile     `json:"skillProfile"`
	ErrorPatterns []ErrorPattern   `json:"errorPatterns"`
	Response      ResponseMetrics  `json:"responseMetrics"`
	Mouse         MouseBehavior    `json:"mouseBehavior"`
	Cognitive     Estimate         `json:"cognitiveMetrics"`
	Affect        AffectiveState   `json:"affectiveState"`
	Adaptive      AdaptiveParams   `json:"adaptiveParams"`
	History       []SessionSummary `json:"sessionHistory"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// NewLearnerModel creates the model for a first-time learner.
func NewLearnerModel(userID string, now time.Time) *LearnerModel {
	return &LearnerModel{
		UserID: userID,
		Skills: SkillProfile{
			NumberRecognition: 50,
			Addition:          50,
			Subtraction:       50,
			Sequencing:        50,
			ProblemSolving:    50,
		},
		Cognitive: DefaultEstimate(),
		Affect:    AffectiveState{Confidence: 5},
		Adaptive: AdaptiveParams{
			CurrentDifficulty: 5,
			HintFrequency:     0.3,
			TaskPacing:        1.0,
			FeedbackTone:      ToneNeutral,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Answer is one answered question.
type Answer struct {
	Type           QuestionType `json:"type"`
	Correct        bool         `json:"correct"`
	ResponseTimeMs float64      `json:"responseTime"`
	ErrorType      string       `json:"errorType,omitempty"`
	Context        string       `json:"context,omitempty"`
	At             time.Time    `json:"at"`
}

// RecordAnswer folds one answer into the sub-skills, response metrics and
// error patterns. Responses slower than slowMs count as hesitations.
func (m *LearnerModel) RecordAnswer(a Answer, slowMs float64) {
	target := 0.0
	if a.Correct {
		target = 100
	}
	if p := m.subSkill(a.Type); p != nil {
		*p = clamp(*p*(1-subSkillAlpha)+target*subSkillAlpha, 0, 100)
	}
	m.Skills.ProblemSolving = clamp(m.Skills.ProblemSolving*(1-subSkillAlpha/2)+target*subSkillAlpha/2, 0, 100)

	if a.ResponseTimeMs > 0 && !math.IsInf(a.ResponseTimeMs, 0) {
		m.Response.Observe(a.ResponseTimeMs)
		if slowMs > 0 && a.ResponseTimeMs > slowMs {
			m.Response.Hesitations++
		}
	}

	if !a.Correct {
		m.recordError(a)
	}
}

func (m *LearnerModel) subSkill(t QuestionType) *float64 {
	switch t {
	case TypeRecognition:
		return &m.Skills.NumberRecognition
	case TypeAddition:
		return &m.Skills.Addition
	case TypeSubtraction:
		return &m.Skills.Subtraction
	case TypeSequencing:
		return &m.Skills.Sequencing
	}
	return nil
}

func (m *LearnerModel) recordError(a Answer) {
	kind := a.ErrorType
	if kind == "" {
		kind = string(a.Type) + "_error"
	}
	for i := range m.ErrorPatterns {
		if m.ErrorPatterns[i].Type == kind {
			m.ErrorPatterns[i].Frequency++
			m.ErrorPatterns[i].LastSeen = a.At
			if a.Context != "" {
				m.ErrorPatterns[i].Context = a.Context
			}
			return
		}
	}
	m.ErrorPatterns = append(m.ErrorPatterns, ErrorPattern{
		Type:      kind,
		Frequency: 1,
		LastSeen:  a.At,
		Context:   a.Context,
	})
}

// SessionOutcome is what a finished session contributes to the model.
type SessionOutcome struct {
	SessionID         string
	Start, End        time.Time
	QuestionsAnswered int
	Accuracy          float64 // 0–1
	Metrics           engagement.Metrics
	Estimate          Estimate
	Skipped           int
	Anxiety           *float64
}

// EndSession updates the affective state, adaptive parameters and history
// from a finished session.
func (m *LearnerModel) EndSession(o SessionOutcome) {
	acc := clamp(o.Accuracy, 0, 1)
	m.Cognitive = o.Estimate

	dur := o.End.Sub(o.Start)
	m.Mouse.TotalDistance += o.Metrics.MouseMovement
	if mins := dur.Minutes(); mins > 0 {
		rate := o.Metrics.MouseMovement / mins
		n := float64(m.Mouse.SessionsObserved)
		m.Mouse.AvgPixelsPerMin = (m.Mouse.AvgPixelsPerMin*n + rate) / (n + 1)
		m.Mouse.SessionsObserved++
	}

	a := &m.Affect
	a.Engagement = clamp(o.Metrics.EngagementScore, 0, 100)
	if o.Metrics.FrustrationLevel != nil {
		a.Frustration = clamp(*o.Metrics.FrustrationLevel, 0, 100)
	} else if o.QuestionsAnswered > 0 {
		a.Frustration = clamp(100*(1-acc)*0.6, 0, 100)
	}
	if o.Anxiety != nil {
		a.Anxiety = clamp(*o.Anxiety, 0, 100)
	}
	switch {
	case o.QuestionsAnswered == 0:
	case acc >= 0.8:
		a.Confidence++
	case acc < 0.5:
		a.Confidence--
	}
	a.Confidence = clampInt(a.Confidence, 1, 10)
	a.AvoidanceCount += o.Skipped

	p := &m.Adaptive
	p.CurrentDifficulty = clampInt(int(math.Round(OptimalDifficulty(o.Estimate)/10)), 1, 10)
	if o.QuestionsAnswered > 0 {
		switch {
		case acc < 0.5:
			p.HintFrequency += 0.1
		case acc > 0.8:
			p.HintFrequency -= 0.1
		}
	}
	p.HintFrequency = clamp(p.HintFrequency, 0, 1)

	switch {
	case a.Frustration > highAffect:
		p.TaskPacing -= 0.1
	case a.Engagement >= 70 && acc > 0.8:
		p.TaskPacing += 0.1
	}
	p.TaskPacing = clamp(p.TaskPacing, 0.5, 2.0)

	switch {
	case a.Frustration > highAffect || a.Anxiety > highAffect:
		p.FeedbackTone = ToneEncouraging
	case o.QuestionsAnswered > 0 && acc < 0.5:
		p.FeedbackTone = ToneDirective
	default:
		p.FeedbackTone = ToneNeutral
	}

	m.History = append(m.History, SessionSummary{
		SessionID:         o.SessionID,
		Date:              o.Start,
		DurationSecs:      int(dur.Seconds()),
		QuestionsAnswered: o.QuestionsAnswered,
		Accuracy:          acc,
		AttentionScore:    o.Metrics.AttentionScore,
		EngagementScore:   o.Metrics.EngagementScore,
		MathFluency:       o.Estimate.MathFluency,
	})
	if len(m.History) > MaxHistory {
		m.History = m.History[len(m.History)-MaxHistory:]
	}
	m.UpdatedAt = o.End
}

// TopErrors returns up to n error patterns, most frequent first.
func (m *LearnerModel) TopErrors(n int) []ErrorPattern {
	out := make([]ErrorPattern, len(m.ErrorPatterns))
	copy(out, m.ErrorPatterns)
	slices.SortStableFunc(out, func(a, b ErrorPattern) int {
		return b.Frequency - a.Frequency
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
