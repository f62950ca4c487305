package server

import (
	"net/http"
	"strconv"

	"voicecmd/logger"
)

// HealthHandler reports liveness and the dispatcher state.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"state":  s.dispatcher.State().String(),
		"labels": len(s.dispatcher.Labels()),
	})
}

// RecentPredictionsHandler lists the newest history records (?limit=N).
func (s *Server) RecentPredictionsHandler(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "prediction history disabled")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	recs, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		logger.Error("load prediction history failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to load prediction history")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// PredictionStatsHandler returns how often each label was served.
func (s *Server) PredictionStatsHandler(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "prediction history disabled")
		return
	}
	counts, err := s.history.CountByLabel(r.Context())
	if err != nil {
		logger.Error("load prediction stats failed", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "failed to load prediction stats")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
