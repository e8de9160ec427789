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
	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/quality"
	"github.com/aranyoray/studybot/internal/questions"
	"github.com/aranyoray/studybot/internal/session"
	"github.com/aranyoray/studybot/internal/store"
	"github.com/aranyoray/studybot/internal/ui/components"
)

// Terminal cells are converted to approximate pixels so the tracker's
// noise threshold and gaze geometry keep their meaning.
const (
	cellWidth  = 8
	cellHeight = 16
)

// minBreakGap keeps a persistently low engagement level from re-opening
// the break screen right after a break.
const minBreakGap = 2.0 // minutes

type phase int

const (
	phaseLoading phase = iota
	phaseQuestion
	phaseFeedback
	phaseCheck
	phaseBreak
	phaseQuitConfirm
	phaseSaving
	phaseSummary
	phaseError
)

// Model is the bubbletea model for one practice session.
type Model struct {
	opts Options
	log  *zap.Logger
	now  func() time.Time
	rng  *rand.Rand

	sess    *session.Session
	fluency float64
	phase   phase
	prev    phase

	question    questions.Question
	check       quality.Check
	asked       time.Time
	input       components.AnswerInput
	choice      components.MultiChoice
	usingChoice bool
	lastCorrect bool

	breakMsg   *coach.Message
	breakUntil time.Time

	mouseX, mouseY float64
	hasMouse       bool
	width, height  int

	result *Result
	err    error
}

var _ tea.Model = (*Model)(nil)

// New creates a practice model. Missing clock, randomness, logger or coach
// get defaults.
func New(opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Coach == nil {
		opts.Coach = coach.New(nil, coach.DefaultConfig(), opts.Log)
	}
	return &Model{
		opts: opts,
		log:  opts.Log.Named("practice"),
		now:  opts.Now,
		rng:  opts.Rand,
	}
}

// Result returns the finished session, or nil.
func (m *Model) Result() *Result { return m.result }

// Err returns the error that stopped the session, if any.
func (m *Model) Err() error { return m.err }

func (m *Model) Init() tea.Cmd {
	return m.load()
}

// load reads the learner's thresholds and model.
func (m *Model) load() tea.Cmd {
	st, userID := m.opts.Store, m.opts.UserID
	return func() tea.Msg {
		ctx := context.Background()

		th := fusion.DefaultThresholds()
		p, err := st.ProfileRepo().Get(ctx, userID)
		switch {
		case err == nil:
			th = p.Thresholds
		case !errors.Is(err, store.ErrNotFound):
			return loadedMsg{err: fmt.Errorf("load profile: %w", err)}
		}

		learner, err := st.LearnerRepo().Get(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			learner, err = nil, nil
		}
		if err != nil {
			return loadedMsg{err: fmt.Errorf("load learner: %w", err)}
		}
		return loadedMsg{thresholds: th, learner: learner}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.sess != nil {
			m.sess.Monitor().SetScreen(m.screen())
		}
		return m, nil

	case loadedMsg:
		return m, m.handleLoaded(msg)

	case tickMsg:
		return m, m.handleTick()

	case breakMessageMsg:
		if m.phase == phaseBreak {
			m.breakMsg = &msg.msg
		}
		return m, nil

	case finishedMsg:
		if msg.err != nil {
			m.log.Error("save practice session", zap.Error(msg.err))
			m.err = msg.err
			m.phase = phaseError
			return m, nil
		}
		m.result = msg.result
		m.phase = phaseSummary
		return m, nil

	case tea.FocusMsg:
		m.apply(session.Event{Type: session.EventFocus})
		return m, nil

	case tea.BlurMsg:
		m.apply(session.Event{Type: session.EventBlur})
		return m, nil

	case tea.MouseMotionMsg:
		m.mouseX, m.mouseY = float64(msg.X*cellWidth), float64(msg.Y*cellHeight)
		m.hasMouse = true
		m.apply(session.Event{Type: session.EventMouse, X: m.mouseX, Y: m.mouseY})
		return m, nil

	case tea.MouseClickMsg:
		m.apply(session.Event{Type: session.EventInteraction})
		return m, nil

	case tea.KeyPressMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) active() bool {
	return m.sess != nil && !m.sess.Ended()
}

// apply forwards a terminal signal to a running session.
func (m *Model) apply(e session.Event) {
	if !m.active() {
		return
	}
	if err := m.sess.Apply(e); err != nil {
		m.log.Debug("drop terminal event", zap.String("type", string(e.Type)), zap.Error(err))
	}
}

func (m *Model) screen() fusion.Screen {
	return fusion.Screen{Width: float64(m.width * cellWidth), Height: float64(m.height * cellHeight)}
}

func (m *Model) handleLoaded(msg loadedMsg) tea.Cmd {
	if msg.err != nil {
		m.err = msg.err
		m.phase = phaseError
		return nil
	}
	m.sess = session.New(session.Config{
		UserID:     m.opts.UserID,
		Thresholds: msg.thresholds,
		Learner:    msg.learner,
		Now:        m.now,
		Rand:       m.rng,
	})
	m.fluency = m.sess.Estimate().MathFluency
	if m.width > 0 {
		scr := m.screen()
		m.sess.Monitor().SetScreen(scr)
		m.mouseX, m.mouseY = scr.Width/2, scr.Height/2
		m.hasMouse = true
		m.apply(session.Event{Type: session.EventMouse, X: m.mouseX, Y: m.mouseY})
	}
	m.log.Info("practice session started",
		zap.String("session", m.sess.ID),
		zap.String("condition", string(msg.thresholds.Condition)))
	return tea.Batch(m.nextQuestion(), tick())
}

// handleTick keeps snapshots flowing while the pointer rests and opens the
// break screen or ends the session when the monitor says so.
func (m *Model) handleTick() tea.Cmd {
	if !m.active() {
		return nil
	}
	mon := m.sess.Monitor()
	if m.hasMouse {
		m.apply(session.Event{Type: session.EventMouse, X: m.mouseX, Y: m.mouseY})
	}
	mon.Snapshot()

	if m.phase != phaseQuestion {
		return tick()
	}
	if mon.ShouldEndSession() {
		return m.end()
	}
	if m.breakDue() {
		return tea.Batch(m.startBreak(), tick())
	}
	return tick()
}

func (m *Model) breakDue() bool {
	mon := m.sess.Monitor()
	return mon.ShouldTriggerBreak() && mon.MinutesSinceBreak() >= minBreakGap
}

func (m *Model) startBreak() tea.Cmd {
	th := m.sess.Monitor().Thresholds()
	m.phase = phaseBreak
	m.breakMsg = nil
	m.breakUntil = m.now().Add(time.Duration(th.BreakDuration) * time.Minute)

	c, sit := m.opts.Coach, coach.SituationFor(coach.KindBreak, m.sess)
	return func() tea.Msg {
		return breakMessageMsg{msg: c.BreakMessage(context.Background(), sit)}
	}
}

// resume ends a break, taken in full or skipped, and restarts the
// question clock.
func (m *Model) resume() {
	m.apply(session.Event{Type: session.EventBreak})
	m.phase = phaseQuestion
	m.asked = m.now()
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		return tea.Quit
	}
	if m.active() {
		m.sess.Tracker().TrackInteraction()
	}

	switch m.phase {
	case phaseQuestion, phaseCheck:
		switch key {
		case "esc":
			m.prev, m.phase = m.phase, phaseQuitConfirm
			return nil
		case "tab":
			if m.phase == phaseQuestion {
				m.apply(session.Event{Type: session.EventSkip})
				return m.next()
			}
		}
		return m.handleAnswerKey(msg)

	case phaseFeedback:
		return m.next()

	case phaseBreak:
		switch key {
		case "s":
			m.resume()
		case "enter":
			if !m.now().Before(m.breakUntil) {
				m.resume()
			}
		}
		return nil

	case phaseQuitConfirm:
		switch key {
		case "y", "Y":
			return m.end()
		case "n", "N", "esc":
			m.phase = m.prev
		}
		return nil

	case phaseSummary, phaseError:
		switch key {
		case "enter", "q", "esc":
			return tea.Quit
		}
	}
	return nil
}

// handleAnswerKey routes a key to the active answer widget and submits on
// confirmation.
func (m *Model) handleAnswerKey(msg tea.KeyPressMsg) tea.Cmd {
	if m.usingChoice {
		var chosen bool
		m.choice, chosen = m.choice.Update(msg)
		if chosen {
			return m.submit(m.choice.Value())
		}
		return nil
	}
	if msg.String() == "enter" {
		if m.input.Value() == "" {
			return nil
		}
		return m.submit(m.input.Value())
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) submit(response string) tea.Cmd {
	ms := float64(m.now().Sub(m.asked).Milliseconds())

	if m.phase == phaseCheck {
		m.sess.RecordCheck(m.check, response, ms)
		return m.nextQuestion()
	}

	m.lastCorrect = m.question.Check(response)
	m.sess.RecordAnswer(session.Answer{
		QuestionID:     m.question.ID,
		Type:           m.question.Type,
		Correct:        m.lastCorrect,
		ResponseTimeMs: ms,
		Difficulty:     m.question.Difficulty,
	})
	m.phase = phaseFeedback
	return nil
}

func (m *Model) done() bool {
	if m.opts.MaxQuestions > 0 && m.sess.AnswerCount() >= m.opts.MaxQuestions {
		return true
	}
	return m.sess.Monitor().ShouldEndSession()
}

// next moves on after an answer: end, attention check or a new question.
func (m *Model) next() tea.Cmd {
	if m.done() {
		return m.end()
	}
	if m.sess.CheckDue() {
		m.check = m.sess.NextCheck()
		m.setAnswerWidget(m.check.Options, false)
		m.phase = phaseCheck
		m.asked = m.now()
		return nil
	}
	return m.nextQuestion()
}

func (m *Model) nextQuestion() tea.Cmd {
	m.question = questions.Generate(m.sess.NextQuestion(), m.rng)
	var opts []string
	if m.question.Format == questions.FormatChoice {
		opts = m.question.Choices
	}
	m.setAnswerWidget(opts, true)
	m.phase = phaseQuestion
	m.asked = m.now()
	return nil
}

func (m *Model) setAnswerWidget(options []string, numeric bool) {
	m.usingChoice = len(options) > 0
	if m.usingChoice {
		m.choice = components.NewMultiChoice(options)
		return
	}
	m.input = components.NewAnswerInput("Type your answer...", numeric, 24)
}

// end closes the session and persists it in the background.
func (m *Model) end() tea.Cmd {
	mon := m.sess.Monitor()
	mon.Snapshot()
	analysis := mon.Analyze()
	rec := m.sess.End()
	sit := coach.SituationFor(coach.KindSessionEnd, m.sess)
	m.phase = phaseSaving

	st, c, log := m.opts.Store, m.opts.Coach, m.log
	f := store.Finished{
		Record:   rec,
		Learner:  m.sess.Learner(),
		Analysis: analysis,
		Fluency:  m.fluency,
		At:       m.now(),
	}
	return func() tea.Msg {
		ctx := context.Background()
		p, award, err := st.SaveFinished(ctx, f)
		if err != nil {
			return finishedMsg{err: err}
		}
		log.Info("practice session saved",
			zap.String("session", rec.SessionID),
			zap.Int("answers", rec.TaskCount),
			zap.Bool("valid", rec.Quality.IsValidSession))
		return finishedMsg{result: &Result{
			Record:   rec,
			Summary:  session.BuildSummary(rec),
			Award:    award,
			Progress: p,
			Coach:    c.SessionMessage(ctx, sit),
		}}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
