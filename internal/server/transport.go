package server

import (
	"encoding/json"

	"github.com/gorilla/websocket"
)

// send marshals payload and writes it as one text frame. Any failure,
// whether marshaling or writing, is logged and reported as false; no
// error crosses this boundary. No write deadline is set: failure
// detection is left to the transport's own error signaling.
func (s *Server) send(conn *websocket.Conn, id string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal response", "connection_id", id, "error", err)
		s.metrics.SendFailure()
		return false
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Error("failed to send message", "connection_id", id, "error", err)
		s.metrics.SendFailure()
		return false
	}

	s.metrics.MessageSent()
	return true
}
