// Package httpapi wires the daemon's ops-only HTTP surface: liveness,
// Prometheus metrics, and read-only run inspection. It is deliberately not
// a REST API for managing recordings — that surface is out of scope, the
// same way the core pipeline excludes scheduling policy from its own
// package boundary.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/srec-dev/srec-go/internal/runregistry"
)

// Config tunes the ops HTTP server. Addr follows the same ":PORT" /
// "host:port" convention as config.HTTPAPIConfig.Addr.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the ops listener.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8089",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server is the ops-only HTTP listener: /healthz, /metrics, /runs, /runs/{id}.
type Server struct {
	cfg        Config
	router     *chi.Mux
	httpServer *http.Server
	registry   *runregistry.Registry
	version    string
	startTime  time.Time
}

// NewServer builds a Server backed by registry for run introspection.
func NewServer(cfg Config, registry *runregistry.Registry, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{
		cfg:       cfg,
		registry:  registry,
		version:   version,
		startTime: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{id}", s.handleGetRun)

	s.router = r
	return s
}

// Router exposes the underlying chi router for tests.
func (s *Server) Router() *chi.Mux { return s.router }

type healthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	UptimeSecs int64  `json:"uptime_seconds"`
	ActiveRuns int    `json:"active_runs"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Version:    s.version,
		UptimeSecs: int64(time.Since(s.startTime).Seconds()),
		ActiveRuns: s.registry.Active(),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, ok := s.registry.Get(id)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
