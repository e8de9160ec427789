package engagement

import (
	"math"
	"time"
)

// Tracker accumulates raw interaction signals for one learner session and
// derives bounded attention and engagement scores from them.
//
// A Tracker is owned by a single session and is not safe for concurrent use;
// adapters that receive events from several goroutines must serialise calls.
type Tracker struct {
	cfg Config
	now func() time.Time

	start time.Time

	focused      bool
	focusStart   time.Time
	focusedAccum time.Duration

	interactions int
	distance     float64
	hasLast      bool
	lastX, lastY float64

	snapshots    []Snapshot
	lastSnapshot time.Time
}

// NewTracker creates a Tracker that starts focused at now().
// A nil clock uses time.Now.
func NewTracker(cfg Config, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	if cfg.MaxSnapshots <= 0 {
		cfg.MaxSnapshots = DefaultMaxSnapshots
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = DefaultSnapshotInterval
	}
	t := &Tracker{cfg: cfg, now: now}
	t.start = now()
	t.focused = true
	t.focusStart = t.start
	return t
}

// Config returns the tracker configuration.
func (t *Tracker) Config() Config {
	return t.cfg
}

// StartedAt returns when tracking began (or was last reset).
func (t *Tracker) StartedAt() time.Time {
	return t.start
}

// TrackMouse records a pointer position. Movement below the noise threshold
// is ignored and does not move the reference point.
func (t *Tracker) TrackMouse(x, y float64) {
	if !finite(x) || !finite(y) {
		return
	}
	if !t.hasLast {
		t.lastX, t.lastY, t.hasLast = x, y, true
		t.maybeSnapshot()
		return
	}

	d := math.Hypot(x-t.lastX, y-t.lastY)
	if d > t.cfg.NoiseThreshold {
		t.distance += d
		t.lastX, t.lastY = x, y
	}
	t.maybeSnapshot()
}

// TrackInteraction counts a discrete interaction (click, key press, answer)
// and marks the newest snapshot as interactive.
func (t *Tracker) TrackInteraction() {
	t.interactions++
	if n := len(t.snapshots); n > 0 {
		t.snapshots[n-1].HasInteraction = true
	}
}

// Focus marks the session window as focused.
func (t *Tracker) Focus() {
	if t.focused {
		return
	}
	t.focused = true
	t.focusStart = t.now()
}

// Blur marks the session window as unfocused, freezing focused time.
func (t *Tracker) Blur() {
	if !t.focused {
		return
	}
	t.focusedAccum += t.now().Sub(t.focusStart)
	t.focused = false
}

// IsFocused reports the current focus state.
func (t *Tracker) IsFocused() bool {
	return t.focused
}

// FocusedTime returns the total focused duration so far.
func (t *Tracker) FocusedTime() time.Duration {
	if t.focused {
		return t.focusedAccum + t.now().Sub(t.focusStart)
	}
	return t.focusedAccum
}

// Elapsed returns the time since tracking started.
func (t *Tracker) Elapsed() time.Duration {
	return t.now().Sub(t.start)
}

// InteractionCount returns the number of tracked interactions.
func (t *Tracker) InteractionCount() int {
	return t.interactions
}

// MouseDistance returns the accumulated pointer distance in pixels.
func (t *Tracker) MouseDistance() float64 {
	return t.distance
}

// AttentionScore is the focused share of elapsed time, 0–100.
func (t *Tracker) AttentionScore() float64 {
	total := t.Elapsed()
	if total <= 0 {
		if t.focused {
			return 100
		}
		return 0
	}
	return clamp(100*float64(t.FocusedTime())/float64(total), 0, 100)
}

// InteractionRate is the smoothed interaction rate: interactions per
// second multiplied by the configured rate scale.
func (t *Tracker) InteractionRate() float64 {
	secs := t.Elapsed().Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(t.interactions) / secs * t.cfg.InteractionRateScale
}

// InteractionScore maps the interaction rate onto 0–100.
func (t *Tracker) InteractionScore() float64 {
	return clamp(t.InteractionRate()*t.cfg.InteractionScoreScale, 0, 100)
}

// MouseActivityScore maps the accumulated distance onto 0–100.
func (t *Tracker) MouseActivityScore() float64 {
	if t.cfg.MouseDistanceUnit <= 0 {
		return 0
	}
	return clamp(t.distance/t.cfg.MouseDistanceUnit*t.cfg.MouseScoreScale, 0, 100)
}

// Metrics derives the current engagement metrics.
func (t *Tracker) Metrics() Metrics {
	attention := t.AttentionScore()
	engagement := t.cfg.AttentionWeight*attention +
		t.cfg.InteractionWeight*t.InteractionScore() +
		t.cfg.MouseWeight*t.MouseActivityScore()

	return Metrics{
		FocusTime:        t.FocusedTime().Milliseconds(),
		ActiveTime:       t.Elapsed().Milliseconds(),
		InteractionCount: t.interactions,
		MouseMovement:    t.distance,
		AttentionScore:   attention,
		EngagementScore:  clamp(engagement, 0, 100),
	}
}

// Snapshots returns a copy of the retained snapshots, oldest first.
func (t *Tracker) Snapshots() []Snapshot {
	out := make([]Snapshot, len(t.snapshots))
	copy(out, t.snapshots)
	return out
}

// Latest returns the newest snapshot, if any.
func (t *Tracker) Latest() (Snapshot, bool) {
	if len(t.snapshots) == 0 {
		return Snapshot{}, false
	}
	return t.snapshots[len(t.snapshots)-1], true
}

// AttachGaze stores a gaze sample on the newest snapshot.
func (t *Tracker) AttachGaze(g GazeSample) {
	if n := len(t.snapshots); n > 0 {
		t.snapshots[n-1].Gaze = &g
	}
}

// AttachScores stores derived scores on the newest snapshot.
// A nil frustration leaves the snapshot's frustration unset.
func (t *Tracker) AttachScores(attention, engagement float64, frustration *float64) {
	n := len(t.snapshots)
	if n == 0 {
		return
	}
	s := &t.snapshots[n-1]
	a, e := clamp(attention, 0, 100), clamp(engagement, 0, 100)
	s.AttentionScore = &a
	s.EngagementScore = &e
	if frustration != nil {
		f := clamp(*frustration, 0, 100)
		s.FrustrationLevel = &f
	}
}

// Reset zeroes all counters and clears the snapshot buffer. The focus state
// is preserved and its timer restarts. Timers of a fusion.Monitor wrapping
// the tracker are untouched; use Monitor.Reset to restart them too.
func (t *Tracker) Reset() {
	now := t.now()
	t.start = now
	t.focusStart = now
	t.focusedAccum = 0
	t.interactions = 0
	t.distance = 0
	t.hasLast = false
	t.lastX, t.lastY = 0, 0
	t.snapshots = nil
	t.lastSnapshot = time.Time{}
}

func (t *Tracker) maybeSnapshot() {
	now := t.now()
	if !t.lastSnapshot.IsZero() && now.Sub(t.lastSnapshot) < t.cfg.SnapshotInterval {
		return
	}
	t.lastSnapshot = now
	t.snapshots = append(t.snapshots, Snapshot{
		Timestamp: now,
		IsFocused: t.focused,
		MouseX:    t.lastX,
		MouseY:    t.lastY,
	})
	if len(t.snapshots) > t.cfg.MaxSnapshots {
		t.snapshots = t.snapshots[len(t.snapshots)-t.cfg.MaxSnapshots:]
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// clamp bounds v to [lo, hi]. NaN maps to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp bounds v to [lo, hi]; NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	return clamp(v, lo, hi)
}
