// Package api serves the habit tracker over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/metrics"
	"github.com/julianstephens/streakline/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

// Options configures the HTTP server.
type Options struct {
	// AllowedOrigins lists CORS origins; empty allows all.
	AllowedOrigins []string
	// Metrics enables /metrics and request instrumentation when set.
	Metrics *metrics.Metrics
}

// Server wires HTTP routes to a tracker.
type Server struct {
	svc     *tracker.Service
	metrics *metrics.Metrics
	router  chi.Router
}

func NewServer(svc *tracker.Service, opts Options) *Server {
	s := &Server{svc: svc, metrics: opts.Metrics}
	s.router = s.routes(opts)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes(opts Options) chi.Router {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.metrics))
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/habits", func(r chi.Router) {
			r.Get("/", s.listHabits)
			r.Post("/", s.createHabit)
			r.Get("/{id}", s.getHabit)
			r.Delete("/{id}", s.archiveHabit)
			r.Post("/{id}/complete", s.recordCompletion)
			r.Get("/{id}/streak", s.getStreak)
			r.Get("/{id}/completions", s.listCompletions)
			r.Get("/{id}/completions/range", s.listCompletionsInRange)
		})
		r.Delete("/completions/{id}", s.deleteCompletion)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
