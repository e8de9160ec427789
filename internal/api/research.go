package api

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aranyoray/studybot/internal/research"
	"github.com/aranyoray/studybot/internal/store"
)

// handleResearchExport streams pseudonymised session rows. Optional
// from/to query parameters are RFC 3339 timestamps bounding start time.
func (s *Server) handleResearchExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := research.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var opts store.QueryOpts
	for name, dst := range map[string]*time.Time{"from": &opts.From, "to": &opts.To} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s: %v", name, err))
			return
		}
		*dst = t
	}

	records, err := s.store.SessionRepo().List(r.Context(), opts)
	if err != nil {
		s.internalError(w, r, "Failed to load sessions", err)
		return
	}

	s.researchMu.Lock()
	rows := s.collector.Rows(records)
	s.researchMu.Unlock()

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="studybot-research.%s"`, format))
	if err := research.Write(w, format, rows); err != nil {
		// Headers are sent; nothing left but to log.
		s.log.Error("write research export", zap.Error(err))
	}
}
