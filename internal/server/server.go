package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"facet/internal/config"
	"facet/internal/inspection"
	"facet/internal/live"
	"facet/internal/logging"
	"facet/internal/settings"
)

// CameraMonitor reports whether a capture device is attached. The daemon
// wires the udev monitor in; tests and non-Linux builds leave it nil.
type CameraMonitor interface {
	Present() bool
}

// Server is the daemon's HTTP API.
type Server struct {
	cfg      *config.Config
	machine  *live.Machine
	store    *inspection.Store
	settings *settings.Store
	camera   CameraMonitor
	logger   *slog.Logger

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

// New builds the server and its route table.
func New(cfg *config.Config, machine *live.Machine, store *inspection.Store, settingsStore *settings.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		machine:  machine,
		store:    store,
		settings: settingsStore,
		logger:   logging.NewComponentLogger(logger, "api-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/sessions", s.handleStartSession)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/check", s.handleSessionsCheck)
	mux.HandleFunc("GET /api/sessions/current", s.handleCurrentSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/pause", s.handlePauseSession)
	mux.HandleFunc("POST /api/sessions/{id}/resume", s.handleResumeSession)
	mux.HandleFunc("POST /api/sessions/{id}/stop", s.handleStopSession)
	mux.HandleFunc("POST /api/sessions/{id}/frames", s.handleIngestFrame)
	mux.HandleFunc("GET /api/sessions/{id}/scans", s.handleListScans)
	mux.HandleFunc("GET /api/sessions/{id}/scans/check", s.handleScansCheck)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PATCH /api/settings", s.handleUpdateSettings)
	mux.HandleFunc("GET /ws/sessions/{id}/frames", s.handleFrameSocket)

	s.handler = authMiddleware(cfg.Paths.APIToken, mux)
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// SetCameraMonitor attaches the optional capture-device monitor before
// Start.
func (s *Server) SetCameraMonitor(monitor CameraMonitor) {
	s.camera = monitor
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving on the configured bind address and shuts down when
// ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Paths.APIBind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr reports the bound listen address, or empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down outside of context cancellation.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}
