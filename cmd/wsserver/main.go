package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hidatara-ds/Websocket-AI/internal/config"
	"github.com/hidatara-ds/Websocket-AI/internal/metrics"
	"github.com/hidatara-ds/Websocket-AI/internal/registry"
	"github.com/hidatara-ds/Websocket-AI/internal/server"
	"github.com/hidatara-ds/Websocket-AI/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Logging.SlogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("starting websocket server",
		"version", version.Version,
		"commit", version.Commit,
		"ws_path", cfg.Server.WSPath,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connection registry, shared by the WS core and the status surface
	reg := registry.New()

	// Prometheus metrics (optional)
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m, err = metrics.New()
		if err != nil {
			logger.Error("failed to register metrics", "error", err)
			os.Exit(1)
		}
	}

	wsServer := server.New(reg, m, logger)

	mux := http.NewServeMux()
	mux.Handle(cfg.Server.WSPath, wsServer)
	mux.HandleFunc("/status", statusHandler(reg))
	mux.HandleFunc("/health", healthHandler())
	if cfg.Metrics.Enabled {
		metrics.RegisterHandlers(mux, cfg.Metrics.Path)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: mux,
	}

	go func() {
		logger.Info("listening",
			"addr", httpServer.Addr,
			"ws_url", fmt.Sprintf("ws://%s%s", httpServer.Addr, cfg.Server.WSPath),
			"status_url", fmt.Sprintf("http://%s/status", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		// Live WebSocket connections have no idle timeout, so drain can
		// run out the clock. Force-close whatever is left.
		logger.Warn("graceful shutdown timed out, closing connections", "error", err)
		httpServer.Close()
	}

	logFinalStats(logger, reg)
	logger.Info("websocket server stopped")
}

// statusHandler serves process status plus a handle-free view of every
// live connection, derived from the registry snapshot.
func statusHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		snap := reg.Snapshot()

		conns := make(map[string]any, len(snap))
		for _, c := range snap {
			conns[c.ID] = map[string]any{
				"connected_at":  c.ConnectedAt.Unix(),
				"duration":      now.Sub(c.ConnectedAt).Seconds(),
				"message_count": c.MessageCount,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":            "healthy",
			"server_time":       now.Unix(),
			"total_connections": len(snap),
			"connections":       conns,
		})
	}
}

// healthHandler serves a minimal liveness check.
func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"version": version.Version,
		})
	}
}

// logFinalStats prints the final registry snapshot on the way out.
func logFinalStats(logger *slog.Logger, reg *registry.Registry) {
	snap := reg.Snapshot()
	logger.Info("final connection stats", "total_connections", len(snap))
	for _, c := range snap {
		logger.Info("connection still open at shutdown",
			"connection_id", c.ID,
			"message_count", c.MessageCount,
			"lived", time.Since(c.ConnectedAt).Round(time.Millisecond).String(),
		)
	}
}
