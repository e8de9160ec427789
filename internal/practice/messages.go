package practice

import (
	"time"

	"github.com/aranyoray/studybot/internal/coach"
	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/skill"
)

// loadedMsg carries the learner's stored state.
type loadedMsg struct {
	thresholds fusion.Thresholds
	learner    *skill.LearnerModel
	err        error
}

// tickMsg drives snapshots, break and end checks.
type tickMsg time.Time

// breakMessageMsg delivers the coaching text for a running break.
type breakMessageMsg struct {
	msg coach.Message
}

// finishedMsg is sent once the ended session is persisted.
type finishedMsg struct {
	result *Result
	err    error
}
