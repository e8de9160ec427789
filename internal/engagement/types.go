package engagement

import "time"

const (
	// DefaultNoiseThreshold is the minimum pointer displacement (in pixels)
	// counted as movement. Smaller deltas are treated as jitter.
	DefaultNoiseThreshold = 5.0

	// DefaultSnapshotInterval is the minimum spacing between two snapshots.
	DefaultSnapshotInterval = 2 * time.Second

	// DefaultMaxSnapshots is the number of snapshots retained.
	DefaultMaxSnapshots = 30
)

// Level classifies a learner's current engagement.
type Level string

const (
	LevelHigh     Level = "high"
	LevelMedium   Level = "medium"
	LevelLow      Level = "low"
	LevelCritical Level = "critical"
)

// Metrics is the derived view of a tracked session. All scores are 0–100.
type Metrics struct {
	FocusTime        int64   `json:"focusTime"`  // ms
	ActiveTime       int64   `json:"activeTime"` // ms
	InteractionCount int     `json:"interactionCount"`
	MouseMovement    float64 `json:"mouseMovement"`
	AttentionScore   float64 `json:"attentionScore"`
	EngagementScore  float64 `json:"engagementScore"`

	EyeTrackingScore     *float64 `json:"eyeTrackingScore,omitempty"`
	AudioEngagementScore *float64 `json:"audioEngagementScore,omitempty"`
	FrustrationLevel     *float64 `json:"frustrationLevel,omitempty"`
	ConfusionLevel       *float64 `json:"confusionLevel,omitempty"`

	EngagementLevel Level `json:"engagementLevel,omitempty"`
}

// GazeSample is one gaze estimate in screen coordinates.
type GazeSample struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Snapshot is a point-in-time sample of the tracker state.
type Snapshot struct {
	Timestamp      time.Time   `json:"timestamp"`
	IsFocused      bool        `json:"isFocused"`
	HasInteraction bool        `json:"hasInteraction"`
	MouseX         float64     `json:"mouseX"`
	MouseY         float64     `json:"mouseY"`
	Gaze           *GazeSample `json:"eyeGaze,omitempty"`

	AttentionScore   *float64 `json:"attentionScore,omitempty"`
	EngagementScore  *float64 `json:"engagementScore,omitempty"`
	FrustrationLevel *float64 `json:"frustrationLevel,omitempty"`
}

// Config holds the tracker's tunable constants. The normalisation scales
// are heuristics and are exposed so deployments can recalibrate them.
type Config struct {
	NoiseThreshold   float64
	SnapshotInterval time.Duration
	MaxSnapshots     int

	// InteractionRateScale multiplies interactions/second into the
	// smoothed interaction rate.
	InteractionRateScale float64
	// InteractionScoreScale maps the smoothed rate onto 0–100.
	InteractionScoreScale float64
	// MouseDistanceUnit is the pixel distance worth MouseScoreScale points.
	MouseDistanceUnit float64
	MouseScoreScale   float64

	AttentionWeight   float64
	InteractionWeight float64
	MouseWeight       float64
}

// DefaultConfig returns the standard tracker configuration.
func DefaultConfig() Config {
	return Config{
		NoiseThreshold:        DefaultNoiseThreshold,
		SnapshotInterval:      DefaultSnapshotInterval,
		MaxSnapshots:          DefaultMaxSnapshots,
		InteractionRateScale:  10,
		InteractionScoreScale: 10,
		MouseDistanceUnit:     1000,
		MouseScoreScale:       10,
		AttentionWeight:       0.4,
		InteractionWeight:     0.3,
		MouseWeight:           0.3,
	}
}
