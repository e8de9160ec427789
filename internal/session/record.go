package session

import (
	"time"

	"github.com/aranyoray/studybot/internal/engagement"
	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/quality"
	"github.com/aranyoray/studybot/internal/skill"
)

// Record is the session record sent to persistence and research export.
type Record struct {
	SessionID string     `json:"sessionId"`
	UserID    string     `json:"userId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`

	DurationSecs float64 `json:"duration"`
	Accuracy     float64 `json:"accuracy"` // 0–1
	TaskCount    int     `json:"taskCount"`
	Skipped      int     `json:"skipped"`
	BreaksTaken  int     `json:"breaksTaken"`

	Condition  fusion.Condition   `json:"condition"`
	Estimate   skill.Estimate     `json:"skillEstimate"`
	Engagement engagement.Metrics `json:"engagement"`
	Quality    quality.Metrics    `json:"quality"`

	ByType          []TypeProgress        `json:"byType"`
	Snapshots       []engagement.Snapshot `json:"engagementSnapshots"`
	Answers         []Answer              `json:"answers"`
	AttentionChecks []quality.CheckResult `json:"attentionChecks"`
}

// Record builds the current session record. It may be called before End
// for an in-progress view.
func (s *Session) Record() Record {
	end := s.now()
	var endPtr *time.Time
	if !s.end.IsZero() {
		end = s.end
		e := s.end
		endPtr = &e
	}

	answers := make([]Answer, len(s.answers))
	copy(answers, s.answers)

	return Record{
		SessionID:       s.ID,
		UserID:          s.UserID,
		StartTime:       s.start,
		EndTime:         endPtr,
		DurationSecs:    end.Sub(s.start).Seconds(),
		Accuracy:        s.Accuracy(),
		TaskCount:       len(s.answers),
		Skipped:         s.skipped,
		BreaksTaken:     s.monitor.Breaks(),
		Condition:       s.monitor.Thresholds().Condition,
		Estimate:        s.estimate,
		Engagement:      s.monitor.Metrics(),
		Quality:         s.validator.Evaluate(),
		ByType:          s.typeResults(),
		Snapshots:       s.monitor.Tracker().Snapshots(),
		Answers:         answers,
		AttentionChecks: s.validator.Checks(),
	}
}

func (s *Session) typeResults() []TypeProgress {
	out := make([]TypeProgress, 0, len(s.byType))
	for _, t := range typeOrder {
		if tp, ok := s.byType[t]; ok {
			out = append(out, *tp)
		}
	}
	return out
}
