package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aranyoray/studybot/internal/quality"
	"github.com/aranyoray/studybot/internal/session"
	"github.com/aranyoray/studybot/internal/store"
)

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	var rec session.Record
	if err := decode(w, r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if rec.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if !allowUser(r, rec.UserID) {
		writeError(w, http.StatusForbidden, "Not allowed for this user")
		return
	}

	if err := s.store.SessionRepo().Save(r.Context(), rec); err != nil {
		s.internalError(w, r, "Failed to save session", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "sessionId": rec.SessionID})
}

// loadSession fetches a record, writing 404 or 500 on failure.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request, id string) (session.Record, bool) {
	rec, err := s.store.SessionRepo().Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return rec, false
	}
	if err != nil {
		s.internalError(w, r, "Failed to load session", err)
		return rec, false
	}
	if !allowUser(r, rec.UserID) {
		writeError(w, http.StatusForbidden, "Not allowed for this user")
		return rec, false
	}
	return rec, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadSession(w, r, mux.Vars(r)["id"])
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// SessionAnalytics summarises a stored session. Percentages are 0–100.
type SessionAnalytics struct {
	SessionID       string         `json:"sessionId"`
	Accuracy        float64        `json:"accuracy"`
	TotalQuestions  int            `json:"totalQuestions"`
	AverageTimeMs   float64        `json:"averageTime"`
	AttentionScore  float64        `json:"attentionScore"`
	EngagementScore float64        `json:"engagementScore"`
	MathFluency     float64        `json:"mathFluency"`
	SnapshotCount   int            `json:"snapshotCount"`
	QualityFlags    []quality.Flag `json:"qualityFlags"`
	IsValidSession  bool           `json:"isValidSession"`
}

// Analytics derives the analytics view of a record. AttentionScore is the
// share of attention checks passed, 0 when none were given.
func Analytics(rec session.Record, snapshots int) SessionAnalytics {
	a := SessionAnalytics{
		SessionID:       rec.SessionID,
		TotalQuestions:  len(rec.Answers),
		EngagementScore: rec.Engagement.EngagementScore,
		MathFluency:     rec.Estimate.MathFluency,
		SnapshotCount:   snapshots,
		QualityFlags:    rec.Quality.QualityFlags,
		IsValidSession:  rec.Quality.IsValidSession,
	}
	if a.QualityFlags == nil {
		a.QualityFlags = []quality.Flag{}
	}

	if n := len(rec.Answers); n > 0 {
		correct, total := 0, 0.0
		for _, ans := range rec.Answers {
			if ans.Correct {
				correct++
			}
			total += ans.ResponseTimeMs
		}
		a.Accuracy = float64(correct) / float64(n) * 100
		a.AverageTimeMs = total / float64(n)
	}

	if n := len(rec.AttentionChecks); n > 0 {
		passed := 0
		for _, c := range rec.AttentionChecks {
			if c.Passed {
				passed++
			}
		}
		a.AttentionScore = float64(passed) / float64(n) * 100
	}
	return a
}

func (s *Server) handleSessionAnalytics(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadSession(w, r, mux.Vars(r)["id"])
	if !ok {
		return
	}
	snaps, err := s.store.SnapshotRepo().List(r.Context(), rec.SessionID)
	if err != nil {
		s.internalError(w, r, "Failed to load snapshots", err)
		return
	}
	n := len(snaps)
	if n == 0 {
		n = len(rec.Snapshots)
	}
	writeJSON(w, http.StatusOK, Analytics(rec, n))
}
