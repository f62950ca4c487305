package server

import (
	"bytes"
	"net/http"

	"github.com/gorilla/websocket"

	"voicecmd/logger"
)

// WebSocketPredictHandler treats every binary message as one WAV payload and
// answers with a JSON text message. Messages are handled in order.
func (s *Server) WebSocketPredictHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.maxUpload)

	logger.Info("websocket client connected", logger.String("remote", r.RemoteAddr))
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", logger.ErrorField(err))
			}
			return
		}

		var reply interface{}
		if msgType != websocket.BinaryMessage {
			reply = errorResponse{Error: "send audio as a binary message"}
		} else if res, err := s.predict(r.Context(), "websocket", bytes.NewReader(data)); err != nil {
			reply = errorResponse{Error: err.Error()}
		} else {
			reply = commandResponse{Command: res.Label}
		}

		if err := conn.WriteJSON(reply); err != nil {
			logger.Warn("websocket write failed", logger.ErrorField(err))
			return
		}
	}
}
