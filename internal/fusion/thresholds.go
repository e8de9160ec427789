package fusion

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/aranyoray/studybot/internal/engagement"
)

// Condition names a learner profile with its own threshold tuning.
type Condition string

const (
	ConditionTypical     Condition = "typical"
	ConditionADHD        Condition = "adhd"
	ConditionASD         Condition = "asd"
	ConditionDyslexia    Condition = "dyslexia"
	ConditionDyscalculia Condition = "dyscalculia"
	ConditionAnxiety     Condition = "anxiety"
)

// AllConditions lists every known profile in display order.
var AllConditions = []Condition{
	ConditionTypical,
	ConditionADHD,
	ConditionASD,
	ConditionDyslexia,
	ConditionDyscalculia,
	ConditionAnxiety,
}

// DiagnosedConditions is the onboarding record of a learner's diagnoses.
type DiagnosedConditions struct {
	Dyslexia           bool   `json:"dyslexia"`
	Dyscalculia        bool   `json:"dyscalculia"`
	ADHD               bool   `json:"adhd"`
	ASD                bool   `json:"asd"`
	Dysgraphia         bool   `json:"dysgraphia"`
	ProcessingDisorder bool   `json:"processingDisorder"`
	AnxietyDisorder    bool   `json:"anxietyDisorder"`
	Other              string `json:"other"`
}

// Thresholds are the per-learner limits the fusion layer classifies against.
// Scores are 0–100, session lengths and break timings are minutes and
// response times are seconds.
type Thresholds struct {
	Condition Condition `json:"condition"`

	MinAttentionScore      float64 `json:"minAttentionScore"`
	CriticalAttentionScore float64 `json:"criticalAttentionScore"`

	MinEngagementScore      float64 `json:"minEngagementScore"`
	CriticalEngagementScore float64 `json:"criticalEngagementScore"`

	MaxFrustrationLevel      float64 `json:"maxFrustrationLevel"`
	CriticalFrustrationLevel float64 `json:"criticalFrustrationLevel"`

	RecommendedSessionLength int `json:"recommendedSessionLength"`
	MaxSessionLength         int `json:"maxSessionLength"`

	BreakFrequency int `json:"breakFrequency"`
	BreakDuration  int `json:"breakDuration"`

	NormalResponseTime float64 `json:"normalResponseTime"`
	SlowResponseTime   float64 `json:"slowResponseTime"`

	Notes string `json:"notes,omitempty"`
}

var profiles = map[Condition]Thresholds{
	ConditionTypical: {
		Condition:                ConditionTypical,
		MinAttentionScore:        50,
		CriticalAttentionScore:   30,
		MinEngagementScore:       55,
		CriticalEngagementScore:  35,
		MaxFrustrationLevel:      60,
		CriticalFrustrationLevel: 80,
		RecommendedSessionLength: 25,
		MaxSessionLength:         45,
		BreakFrequency:           20,
		BreakDuration:            5,
		NormalResponseTime:       3,
		SlowResponseTime:         10,
	},
	ConditionADHD: {
		Condition:                ConditionADHD,
		MinAttentionScore:        40,
		CriticalAttentionScore:   20,
		MinEngagementScore:       45,
		CriticalEngagementScore:  25,
		MaxFrustrationLevel:      50,
		CriticalFrustrationLevel: 70,
		RecommendedSessionLength: 15,
		MaxSessionLength:         25,
		BreakFrequency:           10,
		BreakDuration:            5,
		NormalResponseTime:       3,
		SlowResponseTime:         10,
		Notes:                    "Shorter, more frequent sessions with movement breaks",
	},
	ConditionASD: {
		Condition:                ConditionASD,
		MinAttentionScore:        45,
		CriticalAttentionScore:   25,
		MinEngagementScore:       50,
		CriticalEngagementScore:  30,
		MaxFrustrationLevel:      50,
		CriticalFrustrationLevel: 75,
		RecommendedSessionLength: 20,
		MaxSessionLength:         30,
		BreakFrequency:           15,
		BreakDuration:            7,
		NormalResponseTime:       5,
		SlowResponseTime:         15,
		Notes:                    "Predictable structure and longer sensory breaks",
	},
	ConditionDyslexia: {
		Condition:                ConditionDyslexia,
		MinAttentionScore:        45,
		CriticalAttentionScore:   25,
		MinEngagementScore:       50,
		CriticalEngagementScore:  30,
		MaxFrustrationLevel:      65,
		CriticalFrustrationLevel: 85,
		RecommendedSessionLength: 25,
		MaxSessionLength:         40,
		BreakFrequency:           20,
		BreakDuration:            5,
		NormalResponseTime:       4,
		SlowResponseTime:         12,
	},
	ConditionDyscalculia: {
		Condition:                ConditionDyscalculia,
		MinAttentionScore:        45,
		CriticalAttentionScore:   25,
		MinEngagementScore:       50,
		CriticalEngagementScore:  30,
		MaxFrustrationLevel:      65,
		CriticalFrustrationLevel: 85,
		RecommendedSessionLength: 20,
		MaxSessionLength:         35,
		BreakFrequency:           15,
		BreakDuration:            5,
		NormalResponseTime:       4,
		SlowResponseTime:         12,
	},
	ConditionAnxiety: {
		Condition:                ConditionAnxiety,
		MinAttentionScore:        40,
		CriticalAttentionScore:   20,
		MinEngagementScore:       45,
		CriticalEngagementScore:  25,
		MaxFrustrationLevel:      45,
		CriticalFrustrationLevel: 65,
		RecommendedSessionLength: 20,
		MaxSessionLength:         30,
		BreakFrequency:           15,
		BreakDuration:            5,
		NormalResponseTime:       3,
		SlowResponseTime:         10,
		Notes:                    "Watch for anxiety signals and reinforce often",
	},
}

// DefaultThresholds returns the typical-learner profile.
func DefaultThresholds() Thresholds {
	return profiles[ConditionTypical]
}

// Profile returns the thresholds for a condition. Unknown conditions fall
// back to the typical profile.
func Profile(c Condition) (Thresholds, bool) {
	t, ok := profiles[c]
	if !ok {
		return profiles[ConditionTypical], false
	}
	return t, true
}

// ForConditions picks the most protective profile for a set of diagnoses.
// When several apply, asd wins over adhd, then anxiety, dyslexia and
// dyscalculia.
func ForConditions(d DiagnosedConditions) Thresholds {
	switch {
	case d.ASD:
		return profiles[ConditionASD]
	case d.ADHD:
		return profiles[ConditionADHD]
	case d.AnxietyDisorder:
		return profiles[ConditionAnxiety]
	case d.Dyslexia:
		return profiles[ConditionDyslexia]
	case d.Dyscalculia:
		return profiles[ConditionDyscalculia]
	default:
		return profiles[ConditionTypical]
	}
}

// Apply overlays a keyed record of overrides onto a copy of t. Unrecognised
// keys are ignored and missing keys keep their current values. The result is
// clamped to the documented ranges.
func (t Thresholds) Apply(overrides map[string]any) (Thresholds, error) {
	out := t
	if len(overrides) == 0 {
		return out, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return t, fmt.Errorf("create thresholds decoder: %w", err)
	}
	if err := dec.Decode(overrides); err != nil {
		return t, fmt.Errorf("decode thresholds: %w", err)
	}
	return out.Clamp(), nil
}

// Clamp bounds every field to its documented range.
func (t Thresholds) Clamp() Thresholds {
	t.MinAttentionScore = engagement.Clamp(t.MinAttentionScore, 0, 100)
	t.CriticalAttentionScore = engagement.Clamp(t.CriticalAttentionScore, 0, 100)
	t.MinEngagementScore = engagement.Clamp(t.MinEngagementScore, 0, 100)
	t.CriticalEngagementScore = engagement.Clamp(t.CriticalEngagementScore, 0, 100)
	t.MaxFrustrationLevel = engagement.Clamp(t.MaxFrustrationLevel, 0, 100)
	t.CriticalFrustrationLevel = engagement.Clamp(t.CriticalFrustrationLevel, 0, 100)

	t.RecommendedSessionLength = clampInt(t.RecommendedSessionLength, 5, 60)
	t.MaxSessionLength = clampInt(t.MaxSessionLength, 10, 90)
	t.BreakFrequency = clampInt(t.BreakFrequency, 5, 30)
	t.BreakDuration = clampInt(t.BreakDuration, 2, 10)

	if t.NormalResponseTime < 0 {
		t.NormalResponseTime = 0
	}
	if t.SlowResponseTime < t.NormalResponseTime {
		t.SlowResponseTime = t.NormalResponseTime
	}
	return t
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
