package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/hidatara-ds/Websocket-AI/internal/metrics"
	"github.com/hidatara-ds/Websocket-AI/internal/registry"
)

// Server accepts WebSocket upgrades and runs one handler loop per
// connection. It implements http.Handler so the caller decides the mount
// path.
type Server struct {
	registry *registry.Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader

	// Throttles heartbeat debug logs so a chatty client cannot flood
	// the log. Heartbeats themselves are always answered.
	hbLog *rate.Limiter
}

// New creates a Server backed by the given registry. Metrics may be nil
// when the metrics surface is disabled.
func New(reg *registry.Registry, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		registry: reg,
		logger:   logger,
		metrics:  m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from arbitrary origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		hbLog: rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
}

// Registry exposes the connection registry for status surfaces. Snapshots
// taken from it never include transport handles.
func (s *Server) Registry() *registry.Registry {
	return s.registry
}

// ServeHTTP upgrades the request and hands the connection to its handler
// loop. The loop runs on this goroutine; the HTTP server already gives
// each connection its own.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		s.logger.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	s.handleConn(conn, r.RemoteAddr)
}
