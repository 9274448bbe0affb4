package server

import (
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hidatara-ds/Websocket-AI/internal/registry"
)

// handleConn owns one connection from registration to cleanup. The
// deferred registry removal is the one unconditionally guaranteed step:
// it runs on clean close, read error, send failure, and panic alike.
func (s *Server) handleConn(conn *websocket.Conn, remoteAddr string) {
	id := registry.NewConnID()
	start := time.Now()

	s.logger.Info("new connection", "connection_id", id, "remote_addr", remoteAddr)

	if err := s.registry.Add(id, conn); err != nil {
		// Should be unreachable with clock-plus-uuid ids. Refusing the
		// connection is safer than two loops sharing one record.
		s.logger.Error("connection id collision", "connection_id", id, "error", err)
		conn.Close()
		return
	}
	s.metrics.ConnectionOpened()

	defer func() {
		s.registry.Remove(id)
		conn.Close()
		s.metrics.ConnectionClosed()
		s.logger.Info("connection cleaned up",
			"connection_id", id,
			"lived", time.Since(start).Round(time.Millisecond).String(),
			"active", s.registry.Len(),
		)
	}()

	welcome := welcomeMessage{
		Type:         "system_ready",
		Message:      "Test connection successful!",
		ConnectionID: id,
		ServerTime:   time.Now().Unix(),
	}
	if !s.send(conn, id, welcome) {
		s.logger.Error("failed to send welcome message", "connection_id", id)
		return
	}

	for {
		// Blocking receive with no deadline; the client controls the flow.
		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.logReadEnd(id, err)
			return
		}

		stats, ok := s.registry.Touch(id)
		if !ok {
			// Record already torn down mid-flight; nothing left to serve.
			return
		}

		env, derr := decodeEnvelope(raw)
		if derr != nil {
			s.metrics.DecodeError()
			s.logger.Warn("invalid json received", "connection_id", id, "error", derr)
			resp := errorResponse{
				Type:      "error",
				Message:   "Invalid JSON format",
				Error:     derr.Error(),
				Timestamp: time.Now().Unix(),
			}
			if !s.send(conn, id, resp) {
				return
			}
			continue
		}

		s.metrics.MessageReceived(env.Type)
		if env.Kind == KindHeartbeat {
			if s.hbLog.Allow() {
				s.logger.Debug("heartbeat", "connection_id", id)
			}
		} else {
			s.logger.Info("message received", "connection_id", id, "type", env.Type)
		}

		if !s.send(conn, id, s.respondSafe(env, stats)) {
			return
		}
	}
}

// respondSafe guards dispatch so an unexpected panic while building a
// reply degrades to a generic error response instead of taking down the
// connection or the process.
func (s *Server) respondSafe(env Envelope, stats registry.Stats) (resp any) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("message processing failed",
				"connection_id", stats.ID,
				"type", env.Type,
				"panic", r,
			)
			resp = errorResponse{
				Type:      "error",
				Message:   "Server processing error",
				Timestamp: time.Now().Unix(),
			}
		}
	}()

	return respond(env, stats, time.Now())
}

// logReadEnd classifies why the read loop ended. A close frame or EOF is
// a clean close, a dropped transport is routine noise, anything else is
// worth an error-level entry. All three end the loop identically.
func (s *Server) logReadEnd(id string, err error) {
	switch {
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived) || errors.Is(err, io.EOF):
		s.logger.Info("connection closed by client", "connection_id", id)

	case websocket.IsCloseError(err, websocket.CloseAbnormalClosure) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET):
		s.logger.Info("connection closed unexpectedly", "connection_id", id, "error", err)

	default:
		s.logger.Error("receive error", "connection_id", id, "error", err)
	}
}
