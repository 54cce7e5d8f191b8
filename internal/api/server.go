// Package api exposes the trigger boundary: a health probe and an endpoint
// that starts one reconciliation run.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/simplyzetax/habanero/internal/workflow"
)

// Runner starts one reconciliation run.
type Runner interface {
	Run(ctx context.Context) (workflow.RunReport, error)
}

// Pinger reports backing-store liveness for the health probe.
type Pinger interface {
	Ping() error
}

// Server is the HTTP trigger server.
type Server struct {
	addr    string
	runner  Runner
	store   Pinger
	http    *http.Server
	running atomic.Bool
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, runner Runner, store Pinger) *Server {
	s := &Server{addr: addr, runner: runner, store: store}
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Minute, // a triggered run responds with its full report
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/run", s.handleRun)
	return mux
}

// Start begins listening for HTTP requests (non-blocking).
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("http server", "err", err)
		}
	}()

	slog.Info("server listening", "addr", ln.Addr().String())
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "detail": "db unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TryRun starts one run unless another is already in flight. The second
// return value reports whether the run was actually started.
func (s *Server) TryRun(ctx context.Context) (workflow.RunReport, bool, error) {
	if !s.running.CompareAndSwap(false, true) {
		return workflow.RunReport{}, false, nil
	}
	defer s.running.Store(false)

	report, err := s.runner.Run(ctx)
	return report, true, err
}

// handleRun triggers one run. Only one run may be in flight; concurrent
// triggers get a 409 instead of racing the sinks.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	report, started, err := s.TryRun(r.Context())
	if !started {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
		return
	}
	if err != nil {
		slog.Error("triggered run failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, report)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
