package api

import (
	"context"
	"math/rand/v2"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/aranyoray/studybot/internal/coach"
	"github.com/aranyoray/studybot/internal/engagement"
	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/progress"
	"github.com/aranyoray/studybot/internal/quality"
	"github.com/aranyoray/studybot/internal/questions"
	"github.com/aranyoray/studybot/internal/session"
	"github.com/aranyoray/studybot/internal/skill"
	"github.com/aranyoray/studybot/internal/store"
)

type liveStartRequest struct {
	UserID    string        `json:"userId"`
	SessionID string        `json:"sessionId"`
	Screen    fusion.Screen `json:"screen"`
}

// LiveStatus is the current view of a live session.
type LiveStatus struct {
	SessionID         string             `json:"sessionId"`
	UserID            string             `json:"userId"`
	Metrics           engagement.Metrics `json:"metrics"`
	Level             engagement.Level   `json:"engagementLevel"`
	Estimate          skill.Estimate     `json:"skillEstimate"`
	QuestionsAnswered int                `json:"questionsAnswered"`
	Accuracy          float64            `json:"accuracy"`
	MinutesElapsed    float64            `json:"minutesElapsed"`
	BreakRecommended  bool               `json:"breakRecommended"`
	EndRecommended    bool               `json:"endRecommended"`
	Analysis          fusion.Analysis    `json:"analysis"`
	NextQuestion      questions.Question `json:"nextQuestion"`
	AttentionCheck    *quality.Check     `json:"attentionCheck,omitempty"`
	Coach             *coach.Message     `json:"coach,omitempty"`
}

func (s *Server) handleLiveStart(w http.ResponseWriter, r *http.Request) {
	var req liveStartRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if !allowUser(r, req.UserID) {
		writeError(w, http.StatusForbidden, "Not allowed for this user")
		return
	}

	ctx := r.Context()
	profile, err := s.profileFor(ctx, req.UserID)
	if err != nil {
		s.internalError(w, r, "Failed to load thresholds", err)
		return
	}
	learner, err := s.learner(ctx, req.UserID)
	if err != nil {
		s.internalError(w, r, "Failed to load learner model", err)
		return
	}

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	sess := session.New(session.Config{
		ID:         req.SessionID,
		UserID:     req.UserID,
		Thresholds: profile.Thresholds,
		Learner:    learner,
		Now:        s.now,
		Rand:       rng,
	})
	sess.Monitor().SetScreen(req.Screen)

	l := &liveSession{
		sess:    sess,
		fluency: sess.Estimate().MathFluency,
		rng:     rng,
	}
	l.touch(s.now())
	if dropped := s.live.sweep(s.now(), s.liveIdle); len(dropped) > 0 {
		s.log.Info("dropped idle live sessions", zap.Strings("sessions", dropped))
	}
	if !s.live.add(l) {
		writeError(w, http.StatusConflict, "Session already running")
		return
	}
	s.log.Info("live session started",
		zap.String("session", sess.ID),
		zap.String("condition", string(profile.Thresholds.Condition)))

	l.mu.Lock()
	st, _ := s.status(l)
	l.mu.Unlock()
	writeJSON(w, http.StatusCreated, st)
}

// status builds the live view with the question on screen, issuing a new
// one when none is pending. It returns a coaching situation when a break
// is due. Callers hold l.mu.
func (s *Server) status(l *liveSession) (LiveStatus, *coach.Situation) {
	sess := l.sess
	mon := sess.Monitor()
	analysis := mon.Analyze()
	q := l.next()

	st := LiveStatus{
		SessionID:         sess.ID,
		UserID:            sess.UserID,
		Metrics:           analysis.Metrics,
		Level:             analysis.Level,
		Estimate:          sess.Estimate(),
		QuestionsAnswered: sess.AnswerCount(),
		Accuracy:          sess.Accuracy(),
		MinutesElapsed:    mon.MinutesElapsed(),
		BreakRecommended:  analysis.BreakRecommended,
		EndRecommended:    mon.ShouldEndSession(),
		Analysis:          analysis,
		NextQuestion:      q,
	}
	if sess.CheckDue() {
		c := sess.NextCheck()
		st.AttentionCheck = &c
	}
	if !st.BreakRecommended {
		return st, nil
	}
	sit := coach.SituationFor(coach.KindBreak, sess)
	return st, &sit
}

// lookupLive finds a running session, writing 404 or 403 on failure.
func (s *Server) lookupLive(w http.ResponseWriter, r *http.Request) (*liveSession, bool) {
	l, ok := s.live.get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "Live session not found")
		return nil, false
	}
	if !allowUser(r, l.sess.UserID) {
		writeError(w, http.StatusForbidden, "Not allowed for this user")
		return nil, false
	}
	l.touch(s.now())
	return l, true
}

func (s *Server) handleLiveStatus(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookupLive(w, r)
	if !ok {
		return
	}
	l.mu.Lock()
	if l.sess.Ended() {
		l.mu.Unlock()
		writeError(w, http.StatusConflict, "Session already ended")
		return
	}
	st, sit := s.status(l)
	l.mu.Unlock()

	if sit != nil {
		msg := s.coach.BreakMessage(r.Context(), *sit)
		st.Coach = &msg
	}
	writeJSON(w, http.StatusOK, st)
}

// liveEvent is a session event plus the learner's raw response, which is
// graded against the issued question when the answer names one.
type liveEvent struct {
	session.Event
	Response string `json:"response,omitempty"`
}

type liveEventsRequest struct {
	Events []liveEvent `json:"events"`
}

func (s *Server) handleLiveEvents(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookupLive(w, r)
	if !ok {
		return
	}
	var req liveEventsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sess.Ended() {
		writeError(w, http.StatusConflict, "Session already ended")
		return
	}

	events := make([]session.Event, len(req.Events))
	for i, e := range req.Events {
		events[i] = l.grade(e)
	}
	n, err := l.sess.ApplyAll(events)
	l.sess.Monitor().Snapshot()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "applied": n})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "applied": n})
}

// grade fills in correctness, type and difficulty for answers to issued
// questions and clears the pending question on answers and skips. An
// answer the server cannot grade is marked unverified: one naming a
// question that was issued but already graded or forgotten never counts as
// correct, while one for a question the server never issued keeps the
// client's verdict.
func (l *liveSession) grade(e liveEvent) session.Event {
	ev := e.Event
	switch {
	case ev.Type == session.EventSkip:
		l.pending = nil
		return ev
	case ev.Type != session.EventAnswer || ev.Answer == nil:
		return ev
	}
	l.pending = nil

	a := *ev.Answer
	q, ok := l.take(a.QuestionID)
	if ok {
		a.Type = q.Type
		a.Difficulty = q.Difficulty
		a.Correct = q.Check(e.Response)
	} else {
		a.Unverified = true
		if l.seen[a.QuestionID] {
			a.Correct = false
		}
	}
	ev.Answer = &a
	return ev
}

// LiveEndResponse is the outcome of a finished live session.
type LiveEndResponse struct {
	Record   session.Record    `json:"record"`
	Summary  *session.Summary  `json:"summary"`
	Award    progress.Award    `json:"award"`
	Progress progress.Progress `json:"progress"`
	Coach    coach.Message     `json:"coach"`
}

func (s *Server) handleLiveEnd(w http.ResponseWriter, r *http.Request) {
	l, ok := s.lookupLive(w, r)
	if !ok {
		return
	}

	// The lock is held through the save so a concurrent end waits for it.
	// A failed save leaves the session ended but unsaved, and a retry
	// persists the same record.
	l.mu.Lock()
	if l.saved {
		l.mu.Unlock()
		writeError(w, http.StatusConflict, "Session already ended")
		return
	}
	if l.closing == nil {
		l.sess.Monitor().Snapshot()
		a := l.sess.Monitor().Analyze()
		l.closing = &a
	}
	rec := l.sess.End()
	resp, err := s.finish(r.Context(), rec, l.sess.Learner(), *l.closing, l.fluency)
	if err != nil {
		l.mu.Unlock()
		s.internalError(w, r, "Failed to save session", err)
		return
	}
	l.saved = true
	sit := coach.SituationFor(coach.KindSessionEnd, l.sess)
	l.mu.Unlock()
	s.live.remove(rec.SessionID)

	resp.Coach = s.coach.SessionMessage(r.Context(), sit)
	s.log.Info("live session ended",
		zap.String("session", rec.SessionID),
		zap.Int("answers", rec.TaskCount),
		zap.Bool("valid", rec.Quality.IsValidSession),
		zap.Int("xp", resp.Award.XP))
	writeJSON(w, http.StatusOK, resp)
}

// finish persists a finished session and awards progress.
func (s *Server) finish(ctx context.Context, rec session.Record, learner *skill.LearnerModel, analysis fusion.Analysis, fluency float64) (LiveEndResponse, error) {
	p, award, err := s.store.SaveFinished(ctx, store.Finished{
		Record:   rec,
		Learner:  learner,
		Analysis: analysis,
		Fluency:  fluency,
		At:       s.now(),
	})
	if err != nil {
		return LiveEndResponse{}, err
	}
	return LiveEndResponse{
		Record:   rec,
		Summary:  session.BuildSummary(rec),
		Award:    award,
		Progress: p,
	}, nil
}
