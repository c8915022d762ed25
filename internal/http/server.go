// Package http exposes the orchestrator, the transaction store and the
// planning calculators as a JSON API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"finsphere/internal/log"
	"finsphere/internal/orchestrator"
	"finsphere/internal/storage"
)

// Config holds server configuration
type Config struct {
	Port              string
	Orchestrator      *orchestrator.Orchestrator
	Store             storage.TransactionStore
	Logger            *log.Logger
	RequestsPerMinute int
}

type Server struct {
	router   *chi.Mux
	server   *http.Server
	orch     *orchestrator.Orchestrator
	store    storage.TransactionStore
	validate *validator.Validate
	limiter  *rateLimiter
	log      *log.Logger
	started  time.Time
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 120
	}

	s := &Server{
		router:   chi.NewRouter(),
		orch:     cfg.Orchestrator,
		store:    cfg.Store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		limiter:  newRateLimiter(rpm, time.Minute),
		log:      logger.WithComponent(log.ComponentHTTP),
		started:  time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(log.Middleware(s.log, func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))
	s.router.Use(securityHeaders(defaultHeadersConfig()))
	s.router.Use(s.limiter.middleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/cycles", s.handleRunCycle)

		r.Route("/approvals", func(r chi.Router) {
			r.Get("/", s.handlePendingApprovals)
			r.Post("/{id}/approve", s.handleApprove)
			r.Post("/{id}/reject", s.handleReject)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Put("/", s.handleUpsertTransaction)
		})

		r.Route("/planning", func(r chi.Router) {
			r.Get("/debt-payoff", s.handleDebtPayoff)
			r.Get("/projection", s.handleProjection)
			r.Get("/goal", s.handleGoal)
		})
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")
	s.limiter.stop()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}
