// Package server provides the HTTP surface over the analytics modules.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/modules/attribution"
	"github.com/aristath/compass/internal/modules/factors"
	"github.com/aristath/compass/internal/modules/optimization"
	"github.com/aristath/compass/internal/modules/risk"
)

// Config holds server configuration and the module handlers to mount.
type Config struct {
	Port    int
	Log     zerolog.Logger
	DevMode bool

	Factors      *factors.Handler
	Risk         *risk.Handler
	Attribution  *attribution.Handler
	Optimization *optimization.Handler
}

// Server is the HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
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
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/system/status", s.handleSystemStatus)

	s.router.Route("/api/analytics", func(r chi.Router) {
		r.Post("/exposures", s.cfg.Factors.HandleExposures)
		r.Post("/style", s.cfg.Factors.HandleStyle)
		r.Post("/risk", s.cfg.Risk.HandleMetrics)
		r.Post("/attribution", s.cfg.Attribution.HandleAttribution)
	})

	s.router.Route("/api/optimizer", func(r chi.Router) {
		r.Get("/", s.cfg.Optimization.HandleStatus)
		r.Post("/frontier", s.cfg.Optimization.HandleFrontier)
		r.Post("/max-sharpe", s.cfg.Optimization.HandleMaxSharpe)
		r.Post("/risk-constraints", s.cfg.Optimization.HandleRiskConstraints)
		r.Post("/risk-budget", s.cfg.Optimization.HandleRiskBudget)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

// Start begins listening. Blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
