package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/quality"
)

// EventType names a raw signal delivered by an adapter.
type EventType string

const (
	EventMouse       EventType = "mouse"
	EventInteraction EventType = "interaction"
	EventFocus       EventType = "focus"
	EventBlur        EventType = "blur"
	EventFeature     EventType = "feature"
	EventDisable     EventType = "disable"
	EventAnswer      EventType = "answer"
	EventSkip        EventType = "skip"
	EventCheck       EventType = "check"
	EventBreak       EventType = "break"
)

var (
	// ErrUnknownEvent is returned for an unrecognised event type.
	ErrUnknownEvent = errors.New("unknown event type")
	// ErrMissingPayload is returned when an event lacks its payload.
	ErrMissingPayload = errors.New("missing event payload")
	// ErrUnknownCheck is returned when a check answer names no known check.
	ErrUnknownCheck = errors.New("unknown attention check")
)

// Feature carries exactly one perceptual sample.
type Feature struct {
	Gaze       *fusion.GazeFeature       `json:"gaze,omitempty"`
	Audio      *fusion.AudioFeature      `json:"audio,omitempty"`
	Expression *fusion.ExpressionFeature `json:"expression,omitempty"`
	Gesture    *fusion.GestureFeature    `json:"gesture,omitempty"`
}

// Sample returns the carried sample, or nil.
func (f *Feature) Sample() fusion.FeatureSample {
	switch {
	case f == nil:
		return nil
	case f.Gaze != nil:
		return *f.Gaze
	case f.Audio != nil:
		return *f.Audio
	case f.Expression != nil:
		return *f.Expression
	case f.Gesture != nil:
		return *f.Gesture
	}
	return nil
}

// CheckAnswer is a learner's response to an attention check.
type CheckAnswer struct {
	CheckID        string  `json:"checkId"`
	Answer         string  `json:"answer"`
	ResponseTimeMs float64 `json:"responseTime"`
}

// Event is one raw signal. Only the payload matching Type is read. At is
// when the signal happened on the client; batched events carry it so they
// are scored at their own time rather than on arrival. The zero time means
// now.
type Event struct {
	Type     EventType       `json:"type"`
	At       time.Time       `json:"timestamp,omitzero"`
	X        float64         `json:"x,omitempty"`
	Y        float64         `json:"y,omitempty"`
	Feature  *Feature        `json:"feature,omitempty"`
	Modality fusion.Modality `json:"modality,omitempty"`
	Answer   *Answer         `json:"answer,omitempty"`
	Check    *CheckAnswer    `json:"check,omitempty"`
}

// Apply routes an event to the component that consumes it, with the
// session clock held at the event's time.
func (s *Session) Apply(e Event) error {
	if e.At.IsZero() {
		if now := s.clock(); now.After(s.last) {
			s.last = now
		}
	} else {
		s.pin(e.At)
		defer s.unpin()
	}

	switch e.Type {
	case EventMouse:
		s.monitor.Tracker().TrackMouse(e.X, e.Y)
	case EventInteraction:
		s.Interact()
	case EventFocus:
		s.monitor.Tracker().Focus()
	case EventBlur:
		s.monitor.Tracker().Blur()
	case EventFeature:
		sample := e.Feature.Sample()
		if sample == nil {
			return fmt.Errorf("%s event: %w", e.Type, ErrMissingPayload)
		}
		s.monitor.Ingest(sample)
	case EventDisable:
		if e.Modality == "" {
			return fmt.Errorf("%s event: %w", e.Type, ErrMissingPayload)
		}
		s.monitor.Disable(e.Modality)
	case EventAnswer:
		if e.Answer == nil {
			return fmt.Errorf("%s event: %w", e.Type, ErrMissingPayload)
		}
		s.RecordAnswer(*e.Answer)
	case EventSkip:
		s.Skip()
	case EventCheck:
		if e.Check == nil {
			return fmt.Errorf("%s event: %w", e.Type, ErrMissingPayload)
		}
		c, ok := quality.CheckByID(e.Check.CheckID)
		if !ok {
			return fmt.Errorf("check %q: %w", e.Check.CheckID, ErrUnknownCheck)
		}
		s.RecordCheck(c, e.Check.Answer, e.Check.ResponseTimeMs)
	case EventBreak:
		s.TakeBreak()
	default:
		return fmt.Errorf("%q: %w", e.Type, ErrUnknownEvent)
	}
	return nil
}

// ApplyAll applies events in order, stopping at the first error. It
// returns the number of events applied.
func (s *Session) ApplyAll(events []Event) (int, error) {
	for i, e := range events {
		if err := s.Apply(e); err != nil {
			return i, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return len(events), nil
}
