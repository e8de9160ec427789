package session

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/aranyoray/studybot/internal/engagement"
	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/quality"
	"github.com/aranyoray/studybot/internal/skill"
)

// CheckEvery is the number of answered questions between attention checks.
const CheckEvery = 5

// Config configures a new Session.
type Config struct {
	// ID is the session ID. Empty generates a UUID.
	ID     string
	UserID string

	Thresholds fusion.Thresholds
	Tracker    engagement.Config

	// Estimate seeds the skill estimate. Nil uses the learner model's
	// cognitive metrics, or the default estimate for a new learner.
	Estimate *skill.Estimate

	// Learner is the long-lived model updated as the session runs.
	// Nil creates a fresh model for UserID.
	Learner *skill.LearnerModel

	Now  func() time.Time
	Rand *rand.Rand
}

// Answer is one answered question as reported by the UI.
type Answer struct {
	QuestionID     string             `json:"questionId,omitempty"`
	Type           skill.QuestionType `json:"type"`
	Correct        bool               `json:"correct"`
	ResponseTimeMs float64            `json:"responseTime"`
	Difficulty     float64            `json:"difficulty,omitempty"`
	ErrorType      string             `json:"errorType,omitempty"`
	At             time.Time          `json:"timestamp"`

	// Unverified marks an answer whose correctness could not be checked
	// against the question it names.
	Unverified bool `json:"unverified,omitempty"`
}

// Session ties the scoring components together for one learner sitting.
// It is single-owner: callers receiving events concurrently must serialise
// access themselves.
type Session struct {
	ID     string
	UserID string

	clock func() time.Time
	now   func() time.Time
	start time.Time
	end   time.Time

	// at pins the clock to the time of the event being applied; last is
	// the latest event time seen.
	at   time.Time
	last time.Time

	monitor   *fusion.Monitor
	validator *quality.Validator
	learner   *skill.LearnerModel
	estimate  skill.Estimate

	recent  []bool
	answers []Answer
	byType  map[skill.QuestionType]*TypeProgress
	skipped int
}

// New starts a session.
func New(cfg Config) *Session {
	clock := cfg.Now
	if clock == nil {
		clock = time.Now
	}
	id := cfg.ID
	if id == "" {
		id = uuid.New().String()
	}
	if cfg.Tracker == (engagement.Config{}) {
		cfg.Tracker = engagement.DefaultConfig()
	}
	if cfg.Thresholds == (fusion.Thresholds{}) {
		cfg.Thresholds = fusion.DefaultThresholds()
	}

	learner := cfg.Learner
	if learner == nil {
		learner = skill.NewLearnerModel(cfg.UserID, clock())
	}
	est := learner.Cognitive
	if cfg.Estimate != nil {
		est = *cfg.Estimate
	}

	s := &Session{
		ID:       id,
		UserID:   cfg.UserID,
		clock:    clock,
		learner:  learner,
		estimate: est,
		byType:   make(map[skill.QuestionType]*TypeProgress),
	}
	s.now = s.eventTime
	s.start = clock()
	s.last = s.start
	tracker := engagement.NewTracker(cfg.Tracker, s.now)
	s.monitor = fusion.NewMonitor(tracker, cfg.Thresholds, s.now)
	s.validator = quality.NewValidator(s.now, cfg.Rand)
	return s
}

// eventTime is the clock shared by the session's components: the pinned
// event time while an event is applied, the wall clock otherwise.
func (s *Session) eventTime() time.Time {
	if !s.at.IsZero() {
		return s.at
	}
	return s.clock()
}

// pin fixes the clock at t for the duration of one event. t is clamped
// between the latest event time and the wall clock.
func (s *Session) pin(t time.Time) {
	if t.IsZero() {
		return
	}
	if t.Before(s.last) {
		t = s.last
	}
	if now := s.clock(); t.After(now) {
		t = now
	}
	s.at, s.last = t, t
}

func (s *Session) unpin() {
	s.at = time.Time{}
}

// Monitor returns the engagement monitor.
func (s *Session) Monitor() *fusion.Monitor { return s.monitor }

// Tracker returns the base engagement tracker.
func (s *Session) Tracker() *engagement.Tracker { return s.monitor.Tracker() }

// Validator returns the quality validator.
func (s *Session) Validator() *quality.Validator { return s.validator }

// Learner returns the learner model.
func (s *Session) Learner() *skill.LearnerModel { return s.learner }

// Estimate returns the current skill estimate.
func (s *Session) Estimate() skill.Estimate { return s.estimate }

// StartedAt returns the session start time.
func (s *Session) StartedAt() time.Time { return s.start }

// Ended reports whether End was called.
func (s *Session) Ended() bool { return !s.end.IsZero() }

// Interact records a non-answer interaction (click or key press).
func (s *Session) Interact() {
	s.monitor.Tracker().TrackInteraction()
	s.validator.RecordInteraction(s.now())
}

// RecordAnswer scores an answer and updates the estimate, learner model,
// quality log and engagement tracker.
func (s *Session) RecordAnswer(a Answer) {
	if a.At.IsZero() {
		a.At = s.now()
	}
	s.answers = append(s.answers, a)

	s.recent = append(s.recent, a.Correct)
	if len(s.recent) > skill.RecentWindow {
		s.recent = s.recent[len(s.recent)-skill.RecentWindow:]
	}

	correct := 0
	if a.Correct {
		correct = 1
	}
	s.estimate = skill.UpdateEstimate(s.estimate, skill.Performance{
		Correct:           correct,
		Total:             1,
		AvgResponseTimeMs: a.ResponseTimeMs,
	})

	tp := s.byType[a.Type]
	if tp == nil {
		tp = &TypeProgress{Type: a.Type}
		s.byType[a.Type] = tp
	}
	tp.Record(a.Correct)

	slowMs := s.monitor.Thresholds().SlowResponseTime * 1000
	s.learner.RecordAnswer(skill.Answer{
		Type:           a.Type,
		Correct:        a.Correct,
		ResponseTimeMs: a.ResponseTimeMs,
		ErrorType:      a.ErrorType,
		Context:        a.QuestionID,
		At:             a.At,
	}, slowMs)

	s.validator.RecordResponse(a.ResponseTimeMs)
	s.validator.RecordInteraction(a.At)
	s.monitor.Tracker().TrackInteraction()
}

// Skip records a question the learner chose not to answer.
func (s *Session) Skip() {
	s.skipped++
	s.Interact()
}

// NextQuestion returns the parameters for the next question.
func (s *Session) NextQuestion() skill.QuestionParams {
	return skill.NextQuestion(s.estimate, s.recent)
}

// NextCheck picks the next attention check.
func (s *Session) NextCheck() quality.Check {
	return s.validator.NextCheck()
}

// RecordCheck grades an attention check answer.
func (s *Session) RecordCheck(c quality.Check, userAnswer string, responseTimeMs float64) quality.CheckResult {
	r := s.validator.RecordCheck(userAnswer, c.Answer, responseTimeMs, c.Type)
	s.validator.RecordInteraction(s.now())
	s.monitor.Tracker().TrackInteraction()
	return r
}

// CheckDue reports whether an attention check should be shown: fewer checks
// were given than one per CheckEvery answers.
func (s *Session) CheckDue() bool {
	return len(s.validator.Checks()) < len(s.answers)/CheckEvery
}

// TakeBreak records a break and restarts the break timer.
func (s *Session) TakeBreak() {
	s.monitor.RecordBreak()
}

// Accuracy returns the fraction of answers that were correct.
func (s *Session) Accuracy() float64 {
	if len(s.answers) == 0 {
		return 0
	}
	correct := 0
	for _, a := range s.answers {
		if a.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(s.answers))
}

// AnswerCount returns the number of answered questions.
func (s *Session) AnswerCount() int {
	return len(s.answers)
}

// Outcome summarises the session for the learner model.
func (s *Session) Outcome() skill.SessionOutcome {
	end := s.end
	if end.IsZero() {
		end = s.now()
	}
	return skill.SessionOutcome{
		SessionID:         s.ID,
		Start:             s.start,
		End:               end,
		QuestionsAnswered: len(s.answers),
		Accuracy:          s.Accuracy(),
		Metrics:           s.monitor.Metrics(),
		Estimate:          s.estimate,
		Skipped:           s.skipped,
	}
}

// End closes the session, folds it into the learner model and returns the
// final record. Calling End again returns the record without updating the
// model twice.
func (s *Session) End() Record {
	if s.end.IsZero() {
		s.end = s.now()
		s.learner.EndSession(s.Outcome())
	}
	return s.Record()
}
