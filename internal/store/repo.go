package store

import (
	"context"
	"time"

	"github.com/aranyoray/studybot/internal/engagement"
	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/progress"
	"github.com/aranyoray/studybot/internal/session"
	"github.com/aranyoray/studybot/internal/skill"
)

// QueryOpts configures list queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	UserID string    // restrict to one learner
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// SessionRepo stores finished session records.
type SessionRepo interface {
	// Save inserts or replaces the record with the same session id.
	Save(ctx context.Context, rec session.Record) error

	// Get returns the record, or ErrNotFound.
	Get(ctx context.Context, id string) (session.Record, error)

	// List returns records newest first.
	List(ctx context.Context, opts QueryOpts) ([]session.Record, error)
}

// SnapshotRepo stores engagement snapshots per session.
type SnapshotRepo interface {
	// Append adds snapshots in order.
	Append(ctx context.Context, sessionID string, snaps ...engagement.Snapshot) error

	// List returns a session's snapshots oldest first.
	List(ctx context.Context, sessionID string) ([]engagement.Snapshot, error)

	// Prune deletes all but the keep most recent snapshots of a session.
	Prune(ctx context.Context, sessionID string, keep int) error
}

// Profile is a learner's condition profile and personalised thresholds.
type Profile struct {
	UserID     string                     `json:"userId"`
	Condition  fusion.Condition           `json:"condition"`
	Diagnosed  fusion.DiagnosedConditions `json:"diagnosedConditions"`
	Thresholds fusion.Thresholds          `json:"thresholds"`
	UpdatedAt  time.Time                  `json:"updatedAt"`
}

// ProfileRepo stores learner profiles.
type ProfileRepo interface {
	Save(ctx context.Context, p Profile) error
	// Get returns the profile, or ErrNotFound.
	Get(ctx context.Context, userID string) (Profile, error)
}

// LearnerRepo stores learner models.
type LearnerRepo interface {
	Save(ctx context.Context, m *skill.LearnerModel) error
	// Get returns the model, or ErrNotFound.
	Get(ctx context.Context, userID string) (*skill.LearnerModel, error)
}

// ProgressRepo stores gamified progress.
type ProgressRepo interface {
	Save(ctx context.Context, p progress.Progress) error
	// Get returns the progress, or ErrNotFound.
	Get(ctx context.Context, userID string) (progress.Progress, error)
}

// Survey is one self-report answer, e.g. how the learner feels about math.
type Survey struct {
	ID        int       `json:"id"`
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId,omitempty"`
	Kind      string    `json:"kind"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// SurveyRepo stores survey answers.
type SurveyRepo interface {
	Append(ctx context.Context, s Survey) (int, error)
	List(ctx context.Context, opts QueryOpts) ([]Survey, error)
}

// Analysis is a stored engagement analysis.
type Analysis struct {
	ID        int             `json:"id"`
	UserID    string          `json:"userId,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Result    fusion.Analysis `json:"analysis"`
	CreatedAt time.Time       `json:"createdAt"`
}

// AnalysisRepo stores analyses.
type AnalysisRepo interface {
	Append(ctx context.Context, a Analysis) (int, error)
	ListBySession(ctx context.Context, sessionID string) ([]Analysis, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates calls for one purpose or model.
type LLMUsage struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo records and queries LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one event, or ErrNotFound.
	GetLLMEvent(ctx context.Context, id int) (LLMEvent, error)

	// LLMUsageByPurpose and LLMUsageByModel aggregate token usage.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
