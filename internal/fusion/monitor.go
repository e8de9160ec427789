package fusion

import (
	"time"

	"github.com/aranyoray/studybot/internal/engagement"
)

// Level aliases the engagement classification.
type Level = engagement.Level

const (
	highEngagementScore = 70.0
	highAttentionScore  = 70.0
)

// Monitor fuses the base tracker with optional perceptual modalities and
// turns the result into advisory break and end-of-session signals.
// Like the Tracker it wraps, a Monitor is single-owner.
type Monitor struct {
	tracker    *engagement.Tracker
	thresholds Thresholds
	screen     Screen
	now        func() time.Time

	start     time.Time
	lastBreak time.Time
	breaks    int

	enabled map[Modality]bool
	denied  map[Modality]bool

	gaze        []GazeFeature
	eyeScore    *float64
	audioScore  *float64
	frustration *float64
	confusion   *float64
}

// NewMonitor creates a Monitor around tracker using th. The clock should be
// the same one the tracker was built with.
func NewMonitor(tracker *engagement.Tracker, th Thresholds, now func() time.Time) *Monitor {
	if now == nil {
		now = time.Now
	}
	start := now()
	return &Monitor{
		tracker:    tracker,
		thresholds: th.Clamp(),
		now:        now,
		start:      start,
		lastBreak:  start,
		enabled:    make(map[Modality]bool),
		denied:     make(map[Modality]bool),
	}
}

// Tracker returns the underlying engagement tracker.
func (m *Monitor) Tracker() *engagement.Tracker {
	return m.tracker
}

// Thresholds returns the active thresholds.
func (m *Monitor) Thresholds() Thresholds {
	return m.thresholds
}

// SetThresholds replaces the active thresholds.
func (m *Monitor) SetThresholds(th Thresholds) {
	m.thresholds = th.Clamp()
}

// SetScreen sets the area gaze samples are scored against.
func (m *Monitor) SetScreen(s Screen) {
	m.screen = s
	if len(m.gaze) > 0 {
		m.setEye(GazeScore(m.gaze, m.screen))
	}
}

// Enable marks a modality as available. Modalities disabled because of a
// denied permission stay disabled.
func (m *Monitor) Enable(mod Modality) {
	if m.denied[mod] {
		return
	}
	m.enabled[mod] = true
}

// Disable drops a modality, typically after a camera or microphone
// permission was denied. Its scores are discarded and later samples ignored.
func (m *Monitor) Disable(mod Modality) {
	m.denied[mod] = true
	delete(m.enabled, mod)
	switch mod {
	case ModalityEye:
		m.gaze = nil
		m.eyeScore = nil
	case ModalityAudio:
		m.audioScore = nil
	case ModalityExpression:
		m.frustration = nil
		m.confusion = nil
	}
}

// Enabled reports whether a modality is currently contributing.
func (m *Monitor) Enabled(mod Modality) bool {
	return m.enabled[mod]
}

// Ingest folds a perceptual sample into the modality scores. Samples of a
// disabled modality are dropped.
func (m *Monitor) Ingest(s FeatureSample) {
	if s == nil || m.denied[s.Modality()] {
		return
	}
	m.enabled[s.Modality()] = true

	switch f := s.(type) {
	case GazeFeature:
		if f.Timestamp.IsZero() {
			f.Timestamp = m.now()
		}
		m.gaze = append(m.gaze, f)
		if len(m.gaze) > GazeWindow {
			m.gaze = m.gaze[len(m.gaze)-GazeWindow:]
		}
		m.tracker.AttachGaze(engagement.GazeSample{X: f.X, Y: f.Y, Confidence: f.Confidence})
		m.setEye(GazeScore(m.gaze, m.screen))
	case AudioFeature:
		v := AudioScore(f)
		m.audioScore = &v
	case ExpressionFeature:
		fr := engagement.Clamp(f.Frustration*100, 0, 100)
		co := engagement.Clamp(f.Confusion*100, 0, 100)
		m.frustration, m.confusion = &fr, &co
	case GestureFeature:
		if f.Confidence >= MinGestureConfidence {
			m.tracker.TrackInteraction()
		}
	}
}

// SetEyeTrackingScore supplies a precomputed eye-tracking score.
func (m *Monitor) SetEyeTrackingScore(v float64) {
	if m.denied[ModalityEye] {
		return
	}
	m.enabled[ModalityEye] = true
	m.setEye(v)
}

// SetAudioScore supplies a precomputed audio engagement score.
func (m *Monitor) SetAudioScore(v float64) {
	if m.denied[ModalityAudio] {
		return
	}
	m.enabled[ModalityAudio] = true
	v = engagement.Clamp(v, 0, 100)
	m.audioScore = &v
}

// SetFrustration supplies a precomputed frustration level.
func (m *Monitor) SetFrustration(v float64) {
	if m.denied[ModalityExpression] {
		return
	}
	m.enabled[ModalityExpression] = true
	v = engagement.Clamp(v, 0, 100)
	m.frustration = &v
}

// SetConfusion supplies a precomputed confusion level.
func (m *Monitor) SetConfusion(v float64) {
	if m.denied[ModalityExpression] {
		return
	}
	m.enabled[ModalityExpression] = true
	v = engagement.Clamp(v, 0, 100)
	m.confusion = &v
}

func (m *Monitor) setEye(v float64) {
	v = engagement.Clamp(v, 0, 100)
	m.eyeScore = &v
}

// Metrics returns the fused engagement metrics with the level filled in.
func (m *Monitor) Metrics() engagement.Metrics {
	met := m.tracker.Metrics()
	in := Inputs{
		BaseAttention:    met.AttentionScore,
		InteractionScore: m.tracker.InteractionScore(),
		MouseActivity:    m.tracker.MouseActivityScore(),
		BaseEngagement:   met.EngagementScore,
		Eye:              m.eyeScore,
		Audio:            m.audioScore,
		Frustration:      m.frustration,
	}
	met.AttentionScore, met.EngagementScore = Fuse(in)
	met.EyeTrackingScore = copyScore(m.eyeScore)
	met.AudioEngagementScore = copyScore(m.audioScore)
	met.FrustrationLevel = copyScore(m.frustration)
	met.ConfusionLevel = copyScore(m.confusion)
	met.EngagementLevel = Classify(met.AttentionScore, met.EngagementScore, m.frustration, m.thresholds)
	return met
}

// Level classifies the current fused metrics.
func (m *Monitor) Level() Level {
	return m.Metrics().EngagementLevel
}

// MinutesSinceBreak returns the active minutes since the session started or
// the last recorded break.
func (m *Monitor) MinutesSinceBreak() float64 {
	return m.now().Sub(m.lastBreak).Minutes()
}

// MinutesElapsed returns the minutes since the session started.
func (m *Monitor) MinutesElapsed() float64 {
	return m.now().Sub(m.start).Minutes()
}

// ShouldTriggerBreak reports whether the learner should be offered a break.
func (m *Monitor) ShouldTriggerBreak() bool {
	if m.MinutesSinceBreak() >= float64(m.thresholds.BreakFrequency) {
		return true
	}
	if m.Level() == engagement.LevelCritical {
		return true
	}
	return m.frustration != nil && *m.frustration >= m.thresholds.CriticalFrustrationLevel
}

// ShouldEndSession reports whether the maximum session length is reached.
func (m *Monitor) ShouldEndSession() bool {
	return m.MinutesElapsed() >= float64(m.thresholds.MaxSessionLength)
}

// RecordBreak restarts the break timer.
func (m *Monitor) RecordBreak() {
	m.lastBreak = m.now()
	m.breaks++
}

// Reset restarts the tracker along with the session and break timers.
// Modality state and the break count are kept.
func (m *Monitor) Reset() {
	m.tracker.Reset()
	now := m.now()
	m.start, m.lastBreak = now, now
}

// Breaks returns the number of recorded breaks.
func (m *Monitor) Breaks() int {
	return m.breaks
}

// Snapshot stamps the fused scores onto the tracker's newest snapshot.
func (m *Monitor) Snapshot() {
	met := m.Metrics()
	m.tracker.AttachScores(met.AttentionScore, met.EngagementScore, met.FrustrationLevel)
}

// Analyze produces an intervention recommendation for the current state.
func (m *Monitor) Analyze() Analysis {
	return Assess(m.Metrics(), m.thresholds, m.ShouldTriggerBreak())
}

func copyScore(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
