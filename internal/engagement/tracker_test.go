package engagement

import (
	"math"
	"testing"
	"time"
)

const epsilon = 0.001

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*Tracker, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewTracker(DefaultConfig(), clk.Now), clk
}

func TestTrackMouse_IgnoresJitter(t *testing.T) {
	tr, _ := newTestTracker()
	tr.TrackMouse(100, 100)
	tr.TrackMouse(103, 103) // ~4.24 px, below threshold
	if tr.MouseDistance() != 0 {
		t.Errorf("MouseDistance = %f, want 0", tr.MouseDistance())
	}

	tr.TrackMouse(106, 104) // 7.2 px from the reference point (100,100)
	if !almostEqual(tr.MouseDistance(), math.Hypot(6, 4)) {
		t.Errorf("MouseDistance = %f, want %f", tr.MouseDistance(), math.Hypot(6, 4))
	}
}

func TestTrackMouse_FirstPointRecordsOnly(t *testing.T) {
	tr, _ := newTestTracker()
	tr.TrackMouse(500, 500)
	if tr.MouseDistance() != 0 {
		t.Errorf("MouseDistance = %f, want 0", tr.MouseDistance())
	}
	tr.TrackMouse(500, 600)
	if !almostEqual(tr.MouseDistance(), 100) {
		t.Errorf("MouseDistance = %f, want 100", tr.MouseDistance())
	}
}

func TestTrackMouse_IgnoresNonFinite(t *testing.T) {
	tr, _ := newTestTracker()
	tr.TrackMouse(0, 0)
	tr.TrackMouse(math.NaN(), 10)
	tr.TrackMouse(math.Inf(1), 10)
	if tr.MouseDistance() != 0 {
		t.Errorf("MouseDistance = %f, want 0", tr.MouseDistance())
	}
}

func TestSnapshots_RateLimited(t *testing.T) {
	tr, clk := newTestTracker()
	tr.TrackMouse(0, 0)
	clk.Advance(500 * time.Millisecond)
	tr.TrackMouse(50, 0)
	clk.Advance(1000 * time.Millisecond)
	tr.TrackMouse(100, 0)
	if got := len(tr.Snapshots()); got != 1 {
		t.Fatalf("len(Snapshots) = %d, want 1", got)
	}

	clk.Advance(500 * time.Millisecond) // 2000ms since first snapshot
	tr.TrackMouse(150, 0)
	if got := len(tr.Snapshots()); got != 2 {
		t.Fatalf("len(Snapshots) = %d, want 2", got)
	}
}

func TestSnapshots_BoundedFIFO(t *testing.T) {
	tr, clk := newTestTracker()
	for i := 0; i < 100; i++ {
		tr.TrackMouse(float64(i*10), 0)
		if n := len(tr.Snapshots()); n > DefaultMaxSnapshots {
			t.Fatalf("snapshot buffer grew to %d", n)
		}
		clk.Advance(2 * time.Second)
	}

	snaps := tr.Snapshots()
	if len(snaps) != DefaultMaxSnapshots {
		t.Fatalf("len(Snapshots) = %d, want %d", len(snaps), DefaultMaxSnapshots)
	}
	// Oldest evicted first: the first retained snapshot is call #70.
	if snaps[0].MouseX != 700 {
		t.Errorf("oldest MouseX = %f, want 700", snaps[0].MouseX)
	}
	if snaps[len(snaps)-1].MouseX != 990 {
		t.Errorf("newest MouseX = %f, want 990", snaps[len(snaps)-1].MouseX)
	}
}

func TestSnapshots_ReturnsCopy(t *testing.T) {
	tr, _ := newTestTracker()
	tr.TrackMouse(1, 1)
	snaps := tr.Snapshots()
	snaps[0].IsFocused = false
	if latest, _ := tr.Latest(); !latest.IsFocused {
		t.Error("mutating the returned slice changed tracker state")
	}
}

func TestTrackInteraction_MarksLatestSnapshot(t *testing.T) {
	tr, _ := newTestTracker()
	tr.TrackInteraction() // no snapshot yet
	if tr.InteractionCount() != 1 {
		t.Fatalf("InteractionCount = %d, want 1", tr.InteractionCount())
	}

	tr.TrackMouse(10, 10)
	tr.TrackInteraction()
	latest, ok := tr.Latest()
	if !ok || !latest.HasInteraction {
		t.Error("latest snapshot not marked as interactive")
	}
	if tr.InteractionCount() != 2 {
		t.Errorf("InteractionCount = %d, want 2", tr.InteractionCount())
	}
}

func TestFocusTime_FrozenWhileBlurred(t *testing.T) {
	tr, clk := newTestTracker()
	clk.Advance(10 * time.Second)
	tr.Blur()
	clk.Advance(30 * time.Second)
	if got := tr.FocusedTime(); got != 10*time.Second {
		t.Errorf("FocusedTime = %v, want 10s", got)
	}

	tr.Blur() // idempotent
	tr.Focus()
	clk.Advance(10 * time.Second)
	if got := tr.FocusedTime(); got != 20*time.Second {
		t.Errorf("FocusedTime = %v, want 20s", got)
	}
	tr.Focus() // idempotent, must not restart the timer
	if got := tr.FocusedTime(); got != 20*time.Second {
		t.Errorf("FocusedTime = %v, want 20s", got)
	}
}

func TestMetrics_Formula(t *testing.T) {
	tr, clk := newTestTracker()
	tr.TrackMouse(0, 0)
	tr.TrackMouse(300, 400) // 500 px
	for i := 0; i < 3; i++ {
		tr.TrackInteraction()
	}
	clk.Advance(30 * time.Second)
	tr.Blur()
	clk.Advance(30 * time.Second)

	m := tr.Metrics()
	// attention = 100 * 30/60 = 50
	if !almostEqual(m.AttentionScore, 50) {
		t.Errorf("AttentionScore = %f, want 50", m.AttentionScore)
	}
	// rate = 3/60*10 = 0.5 -> 5; mouse = 500/1000*10 = 5
	// engagement = 0.4*50 + 0.3*5 + 0.3*5 = 23
	if !almostEqual(m.EngagementScore, 23) {
		t.Errorf("EngagementScore = %f, want 23", m.EngagementScore)
	}
	if m.FocusTime != 30000 || m.ActiveTime != 60000 {
		t.Errorf("FocusTime/ActiveTime = %d/%d, want 30000/60000", m.FocusTime, m.ActiveTime)
	}
	if m.InteractionCount != 3 {
		t.Errorf("InteractionCount = %d, want 3", m.InteractionCount)
	}
}

func TestMetrics_ZeroElapsed(t *testing.T) {
	tr, _ := newTestTracker()
	if got := tr.Metrics().AttentionScore; got != 100 {
		t.Errorf("focused AttentionScore = %f, want 100", got)
	}
	tr.Blur()
	if got := tr.Metrics().AttentionScore; got != 0 {
		t.Errorf("blurred AttentionScore = %f, want 0", got)
	}
}

func TestMetrics_ClampedForExtremeInputs(t *testing.T) {
	tr, clk := newTestTracker()
	tr.TrackMouse(-1e12, -1e12)
	tr.TrackMouse(1e12, 1e12)
	for i := 0; i < 10000; i++ {
		tr.TrackInteraction()
	}
	clk.Advance(time.Millisecond)

	m := tr.Metrics()
	if m.AttentionScore < 0 || m.AttentionScore > 100 {
		t.Errorf("AttentionScore = %f out of range", m.AttentionScore)
	}
	if m.EngagementScore < 0 || m.EngagementScore > 100 {
		t.Errorf("EngagementScore = %f out of range", m.EngagementScore)
	}
	if !almostEqual(m.EngagementScore, 100) {
		t.Errorf("EngagementScore = %f, want 100", m.EngagementScore)
	}
}

func TestAttachScores(t *testing.T) {
	tr, _ := newTestTracker()
	tr.AttachScores(50, 50, nil) // no snapshot, no-op

	tr.TrackMouse(1, 1)
	f := 140.0
	tr.AttachScores(-5, 80, &f)
	latest, _ := tr.Latest()
	if latest.AttentionScore == nil || *latest.AttentionScore != 0 {
		t.Errorf("AttentionScore = %v, want 0", latest.AttentionScore)
	}
	if latest.EngagementScore == nil || *latest.EngagementScore != 80 {
		t.Errorf("EngagementScore = %v, want 80", latest.EngagementScore)
	}
	if latest.FrustrationLevel == nil || *latest.FrustrationLevel != 100 {
		t.Errorf("FrustrationLevel = %v, want 100", latest.FrustrationLevel)
	}
}

func TestReset(t *testing.T) {
	tr, clk := newTestTracker()
	tr.TrackMouse(0, 0)
	tr.TrackMouse(100, 0)
	tr.TrackInteraction()
	clk.Advance(5 * time.Second)
	tr.Blur()

	tr.Reset()
	if tr.InteractionCount() != 0 || tr.MouseDistance() != 0 {
		t.Error("counters not zeroed")
	}
	if len(tr.Snapshots()) != 0 {
		t.Error("snapshots not cleared")
	}
	if tr.Elapsed() != 0 {
		t.Errorf("Elapsed = %v, want 0", tr.Elapsed())
	}
	if tr.IsFocused() {
		t.Error("Reset changed focus state")
	}

	// The next mouse point is a fresh reference.
	tr.TrackMouse(1000, 0)
	if tr.MouseDistance() != 0 {
		t.Errorf("MouseDistance = %f, want 0", tr.MouseDistance())
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, want float64
	}{
		{-1, 0},
		{50, 50},
		{101, 100},
		{math.NaN(), 0},
		{math.Inf(1), 100},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, 0, 100); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}
