package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/progress"
	"github.com/aranyoray/studybot/internal/skill"
	"github.com/aranyoray/studybot/internal/store"
)

// defaultUser owns progress posted without a user ID.
const defaultUser = "default"

type diagnosticRequest struct {
	UserID string `json:"userId"`
	skill.Diagnostic
}

// DiagnosticResponse is the seeded estimate and the first question to ask.
type DiagnosticResponse struct {
	Status                string               `json:"status"`
	SkillEstimate         skill.Estimate       `json:"skillEstimate"`
	RecommendedDifficulty float64              `json:"recommendedDifficulty"`
	FirstQuestion         skill.QuestionParams `json:"firstQuestion"`
}

func (s *Server) handleDiagnostic(w http.ResponseWriter, r *http.Request) {
	var req diagnosticRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	est := skill.InitializeFromDiagnostic(req.Diagnostic)
	if req.UserID != "" {
		if !allowUser(r, req.UserID) {
			writeError(w, http.StatusForbidden, "Not allowed for this user")
			return
		}
		m, err := s.learner(r.Context(), req.UserID)
		if err != nil {
			s.internalError(w, r, "Failed to load learner model", err)
			return
		}
		m.Cognitive = est
		m.UpdatedAt = s.now()
		if err := s.store.LearnerRepo().Save(r.Context(), m); err != nil {
			s.internalError(w, r, "Failed to save learner model", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, DiagnosticResponse{
		Status:                "success",
		SkillEstimate:         est,
		RecommendedDifficulty: skill.OptimalDifficulty(est),
		FirstQuestion:         skill.NextQuestion(est, nil),
	})
}

// learner loads a learner model, creating a fresh one for new users.
func (s *Server) learner(ctx context.Context, userID string) (*skill.LearnerModel, error) {
	m, err := s.store.LearnerRepo().Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return skill.NewLearnerModel(userID, s.now()), nil
	}
	return m, err
}

type surveyRequest struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	Score     int    `json:"score"`
}

// SurveyKindMathFeeling is how the learner feels about math, 1–10.
const SurveyKindMathFeeling = "math-feeling"

func (s *Server) handleMathFeeling(w http.ResponseWriter, r *http.Request) {
	var req surveyRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Score < 1 || req.Score > 10 {
		writeError(w, http.StatusBadRequest, "score must be between 1 and 10")
		return
	}
	if !allowUser(r, req.UserID) {
		writeError(w, http.StatusForbidden, "Not allowed for this user")
		return
	}

	id, err := s.store.SurveyRepo().Append(r.Context(), store.Survey{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Kind:      SurveyKindMathFeeling,
		Score:     req.Score,
		CreatedAt: s.now(),
	})
	if err != nil {
		s.internalError(w, r, "Failed to save survey", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "id": id, "score": req.Score})
}

func (s *Server) handleSaveProgress(w http.ResponseWriter, r *http.Request) {
	var p progress.Progress
	if err := decode(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.UserID == "" {
		p.UserID = defaultUser
	}
	if !allowUser(r, p.UserID) {
		writeError(w, http.StatusForbidden, "Not allowed for this user")
		return
	}
	if p.Level < 1 {
		p.Level = 1
	}
	if p.Badges == nil {
		p.Badges = []string{}
	}
	p.UpdatedAt = s.now()

	if err := s.store.ProgressRepo().Save(r.Context(), p); err != nil {
		s.internalError(w, r, "Failed to save progress", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "progress": p})
}

// progressFor loads progress, returning starting progress for new users.
func (s *Server) progressFor(ctx context.Context, userID string) (progress.Progress, error) {
	p, err := s.store.ProgressRepo().Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return progress.New(userID), nil
	}
	return p, err
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if !allowUser(r, userID) {
		writeError(w, http.StatusForbidden, "Not allowed for this user")
		return
	}
	p, err := s.progressFor(r.Context(), userID)
	if err != nil {
		s.internalError(w, r, "Failed to load progress", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type profileRequest struct {
	UserID    string                     `json:"userId"`
	Condition fusion.Condition           `json:"condition"`
	Diagnosed fusion.DiagnosedConditions `json:"diagnosedConditions"`
}

// ProfileResponse is returned when a profile is saved.
type ProfileResponse struct {
	Status     string            `json:"status"`
	UserID     string            `json:"userId"`
	Thresholds fusion.Thresholds `json:"thresholds"`
	Message    string            `json:"message"`
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
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

	// An explicit known condition wins over the diagnosis checklist.
	th, ok := fusion.Profile(req.Condition)
	if !ok {
		th = fusion.ForConditions(req.Diagnosed)
	}
	p := store.Profile{
		UserID:     req.UserID,
		Condition:  th.Condition,
		Diagnosed:  req.Diagnosed,
		Thresholds: th,
		UpdatedAt:  s.now(),
	}
	if err := s.store.ProfileRepo().Save(r.Context(), p); err != nil {
		s.internalError(w, r, "Failed to save profile", err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{
		Status:     "success",
		UserID:     req.UserID,
		Thresholds: th,
		Message:    "Profile created with adaptive thresholds",
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if !allowUser(r, userID) {
		writeError(w, http.StatusForbidden, "Not allowed for this user")
		return
	}
	p, err := s.store.ProfileRepo().Get(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if err != nil {
		s.internalError(w, r, "Failed to load profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// profileFor loads a profile, or a typical profile for unknown users.
func (s *Server) profileFor(ctx context.Context, userID string) (store.Profile, error) {
	p, err := s.store.ProfileRepo().Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		th := fusion.DefaultThresholds()
		return store.Profile{UserID: userID, Condition: th.Condition, Thresholds: th}, nil
	}
	return p, err
}

func (s *Server) handleGetThresholds(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if !allowUser(r, userID) {
		writeError(w, http.StatusForbidden, "Not allowed for this user")
		return
	}
	p, err := s.profileFor(r.Context(), userID)
	if err != nil {
		s.internalError(w, r, "Failed to load thresholds", err)
		return
	}
	writeJSON(w, http.StatusOK, p.Thresholds)
}

func (s *Server) handlePatchThresholds(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if !allowUser(r, userID) {
		writeError(w, http.StatusForbidden, "Not allowed for this user")
		return
	}
	var overrides map[string]any
	if err := decode(w, r, &overrides); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.profileFor(r.Context(), userID)
	if err != nil {
		s.internalError(w, r, "Failed to load thresholds", err)
		return
	}
	th, err := p.Thresholds.Apply(overrides)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.Thresholds = th
	p.Condition = th.Condition
	p.UpdatedAt = s.now()
	if err := s.store.ProfileRepo().Save(r.Context(), p); err != nil {
		s.internalError(w, r, "Failed to save thresholds", err)
		return
	}
	writeJSON(w, http.StatusOK, th)
}
