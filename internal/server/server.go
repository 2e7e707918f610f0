package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/procsim/internal/config"
	"github.com/me/procsim/internal/manager"
	"github.com/me/procsim/internal/notify"
	"github.com/me/procsim/internal/store"
)

// Server is the procsim REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	manager   *manager.Manager
	hub       *notify.Hub
	history   store.Store     // optional; nil when the journal is disabled
	baseCtx   context.Context // parent of the scheduling loop started over HTTP
	heartbeat time.Duration
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithHistory sets the journal served by /history.
func WithHistory(st store.Store) Option {
	return func(s *Server) {
		s.history = st
	}
}

// WithBaseContext sets the context the scheduler is started with. Requests
// end long before the loop does, so their contexts are never used for it.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Server) {
		s.baseCtx = ctx
	}
}

// WithHeartbeat sets the SSE heartbeat interval.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) {
		s.heartbeat = d
	}
}

// New creates a new Server with all routes registered. hub must be the
// manager's notification hook target.
func New(cfg config.ServerConfig, mgr *manager.Manager, hub *notify.Hub, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		manager:   mgr,
		hub:       hub,
		baseCtx:   context.Background(),
		heartbeat: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		// Discovery
		r.Get("/", s.handleDiscovery)

		// Health
		r.Get("/health", s.handleHealth)

		// Processes
		r.Route("/processes", func(r chi.Router) {
			r.Get("/", s.handleListProcesses)
			r.Post("/", s.handleCreateProcess)
			r.Post("/random", s.handleSpawnProcesses)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetProcess)
				r.Put("/state", s.handleSetProcessState)
			})
		})
		r.Get("/counts", s.handleCounts)

		// Scheduler control
		r.Route("/scheduler", func(r chi.Router) {
			r.Get("/", s.handleSchedulerStatus)
			r.Post("/start", s.handleStartScheduler)
			r.Post("/stop", s.handleStopScheduler)
			r.Put("/time-slice", s.handleSetTimeSlice)
		})

		// Transition journal
		r.Get("/history", s.handleListHistory)

		// SSE endpoints for real-time updates
		r.Route("/sse", func(r chi.Router) {
			r.Get("/events", s.handleSSEEvents)
		})
	})
}
