package fusion

import "github.com/aranyoray/studybot/internal/engagement"

// Inputs are the signals combined by Fuse. Nil modality scores are
// unavailable and excluded from the blend.
type Inputs struct {
	BaseAttention    float64
	InteractionScore float64 // min(100, interactionRate*10)
	MouseActivity    float64 // min(100, distance/1000*10)
	BaseEngagement   float64

	Eye         *float64
	Audio       *float64
	Frustration *float64
}

const (
	baseFocusWeight = 0.3
	eyeWeight       = 0.7

	wAttention   = 0.4
	wInteraction = 0.2
	wMouse       = 0.1
	wAudio       = 0.2
	wCalm        = 0.1
)

// Fuse blends the base scores with whichever modality scores are present.
// With no modality at all the base engagement score is returned unchanged.
// Missing modalities drop out and the remaining weights are renormalised.
func Fuse(in Inputs) (attention, engagementScore float64) {
	attention = engagement.Clamp(in.BaseAttention, 0, 100)
	if in.Eye != nil {
		attention = baseFocusWeight*attention + eyeWeight*engagement.Clamp(*in.Eye, 0, 100)
	}

	if in.Eye == nil && in.Audio == nil && in.Frustration == nil {
		return attention, engagement.Clamp(in.BaseEngagement, 0, 100)
	}

	sum := wAttention*attention +
		wInteraction*engagement.Clamp(in.InteractionScore, 0, 100) +
		wMouse*engagement.Clamp(in.MouseActivity, 0, 100)
	weight := wAttention + wInteraction + wMouse

	if in.Audio != nil {
		sum += wAudio * engagement.Clamp(*in.Audio, 0, 100)
		weight += wAudio
	}
	if in.Frustration != nil {
		sum += wCalm * (100 - engagement.Clamp(*in.Frustration, 0, 100))
		weight += wCalm
	}
	return engagement.Clamp(attention, 0, 100), engagement.Clamp(sum/weight, 0, 100)
}

// Classify maps scores onto an engagement level. A nil frustration is
// treated as unavailable and never breaches a threshold.
func Classify(attention, engagementScore float64, frustration *float64, th Thresholds) Level {
	frustrated := func(limit float64) bool {
		return frustration != nil && *frustration > limit
	}

	switch {
	case attention < th.CriticalAttentionScore,
		engagementScore < th.CriticalEngagementScore,
		frustrated(th.CriticalFrustrationLevel):
		return engagement.LevelCritical
	case attention < th.MinAttentionScore,
		engagementScore < th.MinEngagementScore,
		frustrated(th.MaxFrustrationLevel):
		return engagement.LevelLow
	case engagementScore >= highEngagementScore && attention >= highAttentionScore:
		return engagement.LevelHigh
	default:
		return engagement.LevelMedium
	}
}

// Analysis is an intervention recommendation.
type Analysis struct {
	Level                   Level              `json:"engagementLevel"`
	AttentionScore          float64            `json:"attentionScore"`
	EngagementScore         float64            `json:"engagementScore"`
	FrustrationLevel        *float64           `json:"frustrationLevel,omitempty"`
	InterventionNeeded      bool               `json:"interventionNeeded"`
	BreakRecommended        bool               `json:"breakRecommended"`
	RecommendedBreakSeconds int                `json:"recommendedBreakTime,omitempty"`
	DifficultyAdjustment    float64            `json:"adaptiveDifficultyAdjustment"`
	Recommendation          string             `json:"recommendation,omitempty"`
	Metrics                 engagement.Metrics `json:"metrics"`
}

// Assess derives an intervention recommendation from fused metrics.
// The difficulty adjustment is in [-1, 1].
func Assess(met engagement.Metrics, th Thresholds, breakDue bool) Analysis {
	level := met.EngagementLevel
	if level == "" {
		level = Classify(met.AttentionScore, met.EngagementScore, met.FrustrationLevel, th)
	}

	a := Analysis{
		Level:            level,
		AttentionScore:   met.AttentionScore,
		EngagementScore:  met.EngagementScore,
		FrustrationLevel: met.FrustrationLevel,
		BreakRecommended: breakDue,
		Metrics:          met,
	}
	a.InterventionNeeded = level == engagement.LevelLow || level == engagement.LevelCritical

	if breakDue {
		a.RecommendedBreakSeconds = th.BreakDuration * 60
	}

	switch {
	case level == engagement.LevelCritical:
		a.DifficultyAdjustment = -1
	case met.FrustrationLevel != nil && *met.FrustrationLevel > th.MaxFrustrationLevel:
		a.DifficultyAdjustment = -0.5
	case level == engagement.LevelHigh:
		a.DifficultyAdjustment = 0.25
	}

	switch {
	case breakDue:
		a.Recommendation = "Take a short break"
	case a.InterventionNeeded:
		a.Recommendation = "Consider taking a break or adjusting difficulty"
	}
	return a
}
