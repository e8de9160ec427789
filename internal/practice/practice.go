// Package practice runs a practice session in the terminal. The terminal is
// treated as one more signal adapter: focus changes, mouse motion and key
// presses feed the session's engagement tracker while the learner answers
// generated questions.
package practice

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/aranyoray/studybot/internal/coach"
	"github.com/aranyoray/studybot/internal/progress"
	"github.com/aranyoray/studybot/internal/session"
	"github.com/aranyoray/studybot/internal/store"
)

// Options configures a practice session.
type Options struct {
	Store  *store.Store
	Coach  *coach.Coach
	UserID string

	// MaxQuestions ends the session after this many answers. Zero leaves
	// the end to the learner's maximum session length.
	MaxQuestions int

	Log  *zap.Logger
	Now  func() time.Time
	Rand *rand.Rand
}

// Result is what a finished practice session produced.
type Result struct {
	Record   session.Record    `json:"record"`
	Summary  *session.Summary  `json:"summary"`
	Award    progress.Award    `json:"award"`
	Progress progress.Progress `json:"progress"`
	Coach    coach.Message     `json:"coach"`
}

// ErrAborted is returned when the learner quits without saving.
var ErrAborted = errors.New("practice session aborted")

// Run starts the terminal program and blocks until the learner leaves.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Store == nil {
		return nil, errors.New("practice: store is required")
	}
	m := New(opts)
	final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, fmt.Errorf("run practice session: %w", err)
	}

	fm, ok := final.(*Model)
	if !ok {
		return nil, fmt.Errorf("unexpected model %T", final)
	}
	if fm.err != nil {
		return nil, fm.err
	}
	if fm.result == nil {
		return nil, ErrAborted
	}
	return fm.result, nil
}
