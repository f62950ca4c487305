package server

import (
	"net/http"

	"voicecmd/logger"
)

// EventsHandler streams prediction events to a WebSocket subscriber.
func (s *Server) EventsHandler(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotFound, "event stream is disabled")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	s.events.Subscribe(conn, r.RemoteAddr)
}
