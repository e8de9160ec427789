// Package api is the studybot REST backend. It persists session records,
// profiles and progress, and runs live scoring sessions fed by browser or
// terminal signal adapters.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/aranyoray/studybot/internal/coach"
	"github.com/aranyoray/studybot/internal/research"
	"github.com/aranyoray/studybot/internal/store"
)

// Version is reported by the root endpoint.
const Version = "2.0.0"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	Store     *store.Store
	Coach     *coach.Coach
	Collector *research.Collector
	Logger    *zap.Logger

	// JWTSecret enables bearer-token auth on /api routes when set.
	JWTSecret string

	// CORSOrigins lists allowed browser origins. Empty allows all.
	CORSOrigins []string

	// LiveIdleTimeout drops live sessions left without requests for this
	// long. Zero uses DefaultLiveIdleTimeout.
	LiveIdleTimeout time.Duration

	Now func() time.Time
}

// Server serves the REST API.
type Server struct {
	store     *store.Store
	coach     *coach.Coach
	log       *zap.Logger
	tracer    trace.Tracer
	jwtSecret []byte
	origins   []string
	now       func() time.Time

	// Collector memoises pseudonyms and is not safe for concurrent use.
	researchMu sync.Mutex
	collector  *research.Collector

	live     *registry
	liveIdle time.Duration
}

// New creates a Server. Store and Collector are required.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if opts.Collector == nil {
		return nil, errors.New("api: research collector is required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	c := opts.Coach
	if c == nil {
		c = coach.New(nil, coach.DefaultConfig(), log)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	idle := opts.LiveIdleTimeout
	if idle <= 0 {
		idle = DefaultLiveIdleTimeout
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Server{
		store:     opts.Store,
		coach:     c,
		log:       log.Named("api"),
		tracer:    otel.Tracer("github.com/aranyoray/studybot/internal/api"),
		jwtSecret: []byte(opts.JWTSecret),
		origins:   origins,
		now:       now,
		collector: opts.Collector,
		live:      newRegistry(),
		liveIdle:  idle,
	}, nil
}

// Handler returns the routed HTTP handler wrapped in CORS.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.traceMiddleware, s.logMiddleware)

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	if len(s.jwtSecret) > 0 {
		api.Use(s.authMiddleware)
	}

	api.HandleFunc("/sessions", s.handleSaveSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/analytics/session/{id}", s.handleSessionAnalytics).Methods(http.MethodGet)

	api.HandleFunc("/diagnostic", s.handleDiagnostic).Methods(http.MethodPost)
	api.HandleFunc("/survey/math-feeling", s.handleMathFeeling).Methods(http.MethodPost)

	api.HandleFunc("/progress", s.handleSaveProgress).Methods(http.MethodPost)
	api.HandleFunc("/progress/{userId}", s.handleGetProgress).Methods(http.MethodGet)

	api.HandleFunc("/profile", s.handleSaveProfile).Methods(http.MethodPost)
	api.HandleFunc("/profile/{userId}", s.handleGetProfile).Methods(http.MethodGet)
	api.HandleFunc("/thresholds/{userId}", s.handleGetThresholds).Methods(http.MethodGet)
	api.HandleFunc("/thresholds/{userId}", s.handlePatchThresholds).Methods(http.MethodPatch)

	api.HandleFunc("/engagement/snapshot", s.handleSnapshot).Methods(http.MethodPost)
	api.HandleFunc("/engagement/batch", s.handleSnapshotBatch).Methods(http.MethodPost)
	api.HandleFunc("/engagement/analyze", s.handleAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/engagement/{sessionId}", s.handleGetSnapshots).Methods(http.MethodGet)

	api.HandleFunc("/live", s.handleLiveStart).Methods(http.MethodPost)
	api.HandleFunc("/live/{id}", s.handleLiveStatus).Methods(http.MethodGet)
	api.HandleFunc("/live/{id}/events", s.handleLiveEvents).Methods(http.MethodPost)
	api.HandleFunc("/live/{id}/end", s.handleLiveEnd).Methods(http.MethodPost)

	api.HandleFunc("/research/export", s.handleResearchExport).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "studybot API",
		"version": Version,
		"status":  "running",
		"features": []string{
			"Engagement aggregation",
			"Multimodal fusion",
			"Adaptive difficulty",
			"Attention-check validation",
			"Adaptive thresholds for learning differences",
			"Pseudonymous research export",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// internalError logs err and replies 500 with a generic message.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.log.Error(msg, zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}

// decode reads a JSON body into v, rejecting bodies over maxBodyBytes.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
