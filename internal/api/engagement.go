package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aranyoray/studybot/internal/engagement"
	"github.com/aranyoray/studybot/internal/fusion"
	"github.com/aranyoray/studybot/internal/store"
)

type snapshotRequest struct {
	SessionID string `json:"sessionId"`
	engagement.Snapshot
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = s.now()
	}

	repo := s.store.SnapshotRepo()
	if err := repo.Append(r.Context(), req.SessionID, req.Snapshot); err != nil {
		s.internalError(w, r, "Failed to save snapshot", err)
		return
	}
	snaps, err := repo.List(r.Context(), req.SessionID)
	if err != nil {
		s.internalError(w, r, "Failed to count snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "snapshotCount": len(snaps)})
}

func (s *Server) handleSnapshotBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []snapshotRequest
	if err := decode(w, r, &reqs); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Group by session keeping arrival order within each.
	var order []string
	bySession := make(map[string][]engagement.Snapshot)
	for i, req := range reqs {
		if req.SessionID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": "sessionId is required",
				"index": i,
			})
			return
		}
		if req.Timestamp.IsZero() {
			req.Timestamp = s.now()
		}
		if _, ok := bySession[req.SessionID]; !ok {
			order = append(order, req.SessionID)
		}
		bySession[req.SessionID] = append(bySession[req.SessionID], req.Snapshot)
	}

	for _, id := range order {
		if err := s.store.SnapshotRepo().Append(r.Context(), id, bySession[id]...); err != nil {
			s.internalError(w, r, "Failed to save snapshots", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "snapshotsRecorded": len(reqs)})
}

func (s *Server) handleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]
	snaps, err := s.store.SnapshotRepo().List(r.Context(), id)
	if err != nil {
		s.internalError(w, r, "Failed to load snapshots", err)
		return
	}
	if snaps == nil {
		snaps = []engagement.Snapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": id,
		"snapshots": snaps,
		"count":     len(snaps),
	})
}

// analyzeRequest carries scores computed by an adapter. Nil modality
// scores are unavailable.
type analyzeRequest struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`

	AttentionScore   float64 `json:"attentionScore"`
	EngagementScore  float64 `json:"engagementScore"`
	InteractionScore float64 `json:"interactionScore"`
	MouseActivity    float64 `json:"mouseActivity"`

	EyeTrackingScore     *float64 `json:"eyeTrackingScore"`
	AudioEngagementScore *float64 `json:"audioEngagementScore"`
	FrustrationLevel     *float64 `json:"frustrationLevel"`
	ConfusionLevel       *float64 `json:"confusionLevel"`

	MinutesSinceBreak float64 `json:"minutesSinceBreak"`
}

// AnalyzeResponse wraps a fused analysis.
type AnalyzeResponse struct {
	Status         string          `json:"status"`
	Analysis       fusion.Analysis `json:"analysis"`
	Recommendation string          `json:"recommendation,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	th := fusion.DefaultThresholds()
	if req.UserID != "" {
		if !allowUser(r, req.UserID) {
			writeError(w, http.StatusForbidden, "Not allowed for this user")
			return
		}
		p, err := s.profileFor(r.Context(), req.UserID)
		if err != nil {
			s.internalError(w, r, "Failed to load thresholds", err)
			return
		}
		th = p.Thresholds
	}

	a := analyze(req, th)
	if req.SessionID != "" {
		if _, err := s.store.AnalysisRepo().Append(r.Context(), store.Analysis{
			UserID:    req.UserID,
			SessionID: req.SessionID,
			Result:    a,
			CreatedAt: s.now(),
		}); err != nil {
			s.internalError(w, r, "Failed to save analysis", err)
			return
		}
	}

	resp := AnalyzeResponse{Status: "success", Analysis: a}
	if a.InterventionNeeded || a.BreakRecommended {
		resp.Status = "intervention_needed"
		resp.Recommendation = a.Recommendation
	}
	writeJSON(w, http.StatusOK, resp)
}

// analyze fuses adapter scores and assesses them against th.
func analyze(req analyzeRequest, th fusion.Thresholds) fusion.Analysis {
	attention, eng := fusion.Fuse(fusion.Inputs{
		BaseAttention:    req.AttentionScore,
		InteractionScore: req.InteractionScore,
		MouseActivity:    req.MouseActivity,
		BaseEngagement:   req.EngagementScore,
		Eye:              req.EyeTrackingScore,
		Audio:            req.AudioEngagementScore,
		Frustration:      req.FrustrationLevel,
	})
	met := engagement.Metrics{
		AttentionScore:       attention,
		EngagementScore:      eng,
		EyeTrackingScore:     req.EyeTrackingScore,
		AudioEngagementScore: req.AudioEngagementScore,
		FrustrationLevel:     req.FrustrationLevel,
		ConfusionLevel:       req.ConfusionLevel,
	}
	met.EngagementLevel = fusion.Classify(attention, eng, req.FrustrationLevel, th)

	breakDue := req.MinutesSinceBreak >= float64(th.BreakFrequency) ||
		met.EngagementLevel == engagement.LevelCritical ||
		(req.FrustrationLevel != nil && *req.FrustrationLevel >= th.CriticalFrustrationLevel)
	return fusion.Assess(met, th, breakDue)
}
