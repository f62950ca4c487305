package server

import (
	"errors"
	"net/http"

	"voicecmd/core/inference"
)

// PredictHandler accepts a multipart upload in field "file" and replies
// {"command": label}.
func (s *Server) PredictHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.Requests.WithLabelValues("http", "too_large").Inc()
			writeError(w, http.StatusRequestEntityTooLarge, "audio file too large")
			return
		}
		s.metrics.Requests.WithLabelValues("http", "missing_input").Inc()
		writeError(w, http.StatusBadRequest, inference.ErrMissingInput.Error())
		return
	}
	defer file.Close()

	res, err := s.predict(r.Context(), "http", file)
	if errors.Is(err, inference.ErrMissingInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Command: res.Label})
}
