// Package server exposes the daemon's HTTP surface: health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sigeo-niteroi/dowatch/internal/gazette"
)

// Server wires the health and metrics handlers for serve mode.
type Server struct {
	router *chi.Mux
	logger *zap.Logger

	mu         sync.RWMutex
	lastReport *gazette.RunReport
	lastError  string
}

// New constructs a Server serving metrics from registry.
func New(logger *zap.Logger, registry *prometheus.Registry) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{logger: logger}

	r := chi.NewRouter()
	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	s.router = r
	return s
}

// Handler returns the HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// RecordRun stores the latest run outcome for health reporting. Only the
// most recent run is kept; nothing is persisted.
func (s *Server) RecordRun(report gazette.RunReport, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := report
	s.lastReport = &r
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
}

type healthResponse struct {
	Status    string             `json:"status"`
	LastRun   *gazette.RunReport `json:"last_run,omitempty"`
	LastError string             `json:"last_error,omitempty"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	resp := healthResponse{
		Status:    "ok",
		LastRun:   s.lastReport,
		LastError: s.lastError,
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("encode health response", zap.Error(err))
	}
}

// Serve runs the HTTP server until ctx finishes, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("http server listening", zap.Int("port", port))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}
}
