// Package server exposes typing sessions over a small JSON and server-sent events API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/verte-zerg/speedtype/internal/logger"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/recommend"
)

const (
	defaultIdleTTL      = time.Hour
	defaultJanitorEvery = 5 * time.Minute
	shutdownTimeout     = 5 * time.Second
)

// ResultStore is the single result slot.
type ResultStore interface {
	Save(ctx context.Context, res model.Result) error
	Load(ctx context.Context) (model.Result, error)
}

// Options configures a Server.
type Options struct {
	Logger  *logger.Logger
	IdleTTL time.Duration
}

// Server serves the HTTP API.
type Server struct {
	manager     *Manager
	slot        ResultStore
	recommender recommend.Recommender
	log         *logger.Logger
	idleTTL     time.Duration
}

// New creates a Server.
func New(manager *Manager, slot ResultStore, rec recommend.Recommender, opts Options) *Server {
	ttl := opts.IdleTTL
	if ttl <= 0 {
		ttl = defaultIdleTTL
	}
	return &Server{
		manager:     manager,
		slot:        slot,
		recommender: rec,
		log:         opts.Logger,
		idleTTL:     ttl,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(requestLogFormatter{log: s.log}))
	r.Use(middleware.Recoverer)

	r.Post("/sessions", s.createSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Delete("/", s.deleteSession)
		r.Post("/input", s.setInput)
		r.Post("/restart", s.restartSession)
		r.Post("/reset", s.resetSession)
		r.Post("/export", s.exportResult)
		r.Get("/events", s.streamEvents)
	})
	r.Get("/analysis", s.getAnalysis)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go s.manager.RunJanitor(janitorCtx, defaultJanitorEvery, s.idleTTL)

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.manager.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Closing runners ends open event streams.
	s.manager.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Client went away.
		_ = err
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}
