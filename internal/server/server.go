// Package server exposes install runs over HTTP.
//
// Routes:
//
//	GET  /healthz     liveness and version
//	GET  /runs        recent runs, newest first (?limit=N, default 20)
//	GET  /runs/{id}   one run
//	POST /runs        install the configured cookbooks and return the run
//
// Installs are serialized: a POST waits for any running install to finish.
package server

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/cookgems/pkg/errors"
	"github.com/matzehuels/cookgems/pkg/runstore"
)

const (
	defaultListLimit = 20
	maxListLimit     = 1000
)

// InstallFunc performs one install and returns its run record. The record
// should be returned even when the install fails.
type InstallFunc func(ctx context.Context) (*runstore.Run, error)

// Options configures a Server.
type Options struct {
	Store   runstore.Store // Run history (required)
	Install InstallFunc    // Install trigger; nil disables POST /runs
	Logger  *log.Logger    // Request and error logging (default: log.Default())
	Version string         // Reported by /healthz
}

// Server serves the run API.
type Server struct {
	store   runstore.Store
	install InstallFunc
	logger  *log.Logger
	version string

	mu sync.Mutex // serializes installs
}

// New creates a Server.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "run store is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{
		store:   opts.Store,
		install: opts.Install,
		logger:  opts.Logger,
		version: opts.Version,
	}, nil
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Get("/healthz", s.healthz)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{id}", s.getRun)
	})

	// Installs run as long as Bundler needs; only the client's
	// disconnect cancels them.
	r.Post("/runs", s.createRun)

	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type healthStatus struct {
	Status    string    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthStatus{
		Status:    "healthy",
		Version:   s.version,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxListLimit)
	}

	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*runstore.Run{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	if s.install == nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "installs are disabled on this server"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.install(r.Context())
	if err != nil {
		s.logger.Error("install failed", "err", err)
		if run == nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusInternalServerError, run)
		return
	}
	s.writeJSON(w, http.StatusCreated, run)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
