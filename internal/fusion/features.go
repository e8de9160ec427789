package fusion

import (
	"math"
	"time"

	"github.com/aranyoray/studybot/internal/engagement"
)

// Modality identifies an optional perceptual signal source.
type Modality string

const (
	ModalityEye        Modality = "eye"
	ModalityAudio      Modality = "audio"
	ModalityExpression Modality = "expression"
	ModalityGesture    Modality = "gesture"
)

// FeatureSample is a vendor-neutral perceptual reading. Adapters normalise
// gaze estimators, audio extractors, expression classifiers and hand
// trackers into one of the concrete sample types below.
type FeatureSample interface {
	Modality() Modality
}

// GazeFeature is a single gaze estimate in screen coordinates.
type GazeFeature struct {
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Confidence float64   `json:"confidence"` // 0–1
	Timestamp  time.Time `json:"timestamp"`
}

// AudioFeature summarises one audio frame. Both fields are 0–1.
type AudioFeature struct {
	Energy        float64 `json:"energy"`
	VoiceActivity float64 `json:"voiceActivity"`
}

// ExpressionFeature is one facial-expression classification. Fields are 0–1.
type ExpressionFeature struct {
	Frustration float64 `json:"frustration"`
	Confusion   float64 `json:"confusion"`
}

// GestureFeature is one detected hand or body gesture.
type GestureFeature struct {
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"` // 0–1
}

func (GazeFeature) Modality() Modality       { return ModalityEye }
func (AudioFeature) Modality() Modality      { return ModalityAudio }
func (ExpressionFeature) Modality() Modality { return ModalityExpression }
func (GestureFeature) Modality() Modality    { return ModalityGesture }

const (
	// GazeWindow is the number of gaze samples scored together.
	GazeWindow = 30

	// MinGestureConfidence is the confidence at which a gesture counts as
	// an interaction.
	MinGestureConfidence = 0.5
)

// Screen is the visible area gaze samples are scored against.
// A zero Screen treats every sample as on-screen.
type Screen struct {
	Width  float64
	Height float64
}

func (s Screen) contains(x, y float64) bool {
	if s.Width <= 0 || s.Height <= 0 {
		return true
	}
	return x >= 0 && x <= s.Width && y >= 0 && y <= s.Height
}

func (s Screen) diagonal() float64 {
	if s.Width <= 0 || s.Height <= 0 {
		return 1000
	}
	return math.Hypot(s.Width, s.Height)
}

// GazeScore scores a window of gaze samples 0–100 from the on-screen share,
// mean confidence and spatial stability (inverse dispersion around the
// centroid, relative to the screen diagonal).
func GazeScore(samples []GazeFeature, screen Screen) float64 {
	if len(samples) == 0 {
		return 0
	}

	var onScreen, conf, cx, cy float64
	for _, g := range samples {
		if screen.contains(g.X, g.Y) {
			onScreen++
		}
		conf += engagement.Clamp(g.Confidence, 0, 1)
		cx += g.X
		cy += g.Y
	}
	n := float64(len(samples))
	cx, cy = cx/n, cy/n

	var dispersion float64
	for _, g := range samples {
		dispersion += math.Hypot(g.X-cx, g.Y-cy)
	}
	dispersion /= n

	stability := 1 - engagement.Clamp(dispersion/screen.diagonal(), 0, 1)
	score := 100 * (onScreen / n) * (0.6*(conf/n) + 0.4*stability)
	return engagement.Clamp(score, 0, 100)
}

// AudioScore maps an audio frame onto 0–100.
func AudioScore(a AudioFeature) float64 {
	e := engagement.Clamp(a.Energy, 0, 1)
	v := engagement.Clamp(a.VoiceActivity, 0, 1)
	return 100 * (0.5*e + 0.5*v)
}
