// Package server provides the HTTP server and routing for capstack.
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

	"github.com/aristath/capstack/internal/config"
	"github.com/aristath/capstack/internal/database"
	"github.com/aristath/capstack/internal/modules/montecarlo"
	montecarlohandlers "github.com/aristath/capstack/internal/modules/montecarlo/handlers"
	"github.com/aristath/capstack/internal/modules/pipeline"
	pipelinehandlers "github.com/aristath/capstack/internal/modules/pipeline/handlers"
	"github.com/aristath/capstack/internal/modules/report"
	"github.com/aristath/capstack/internal/modules/scenarios"
	scenariohandlers "github.com/aristath/capstack/internal/modules/scenarios/handlers"
	snapshothandlers "github.com/aristath/capstack/internal/modules/snapshots/handlers"
)

// requestTimeout bounds every request except the Monte Carlo stream.
const requestTimeout = 60 * time.Second

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	DB        *database.DB
	Runner    *pipeline.Runner
	Simulator *montecarlo.Simulator
	Service   *scenarios.Service
	Loader    *scenarios.Loader
	Report    *report.Writer
	Config    *config.Config
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	db             *database.DB
	cfg            *config.Config
	runner         *pipeline.Runner
	simulator      *montecarlo.Simulator
	service        *scenarios.Service
	report         *report.Writer
	loader         *scenarios.Loader
	systemHandlers *SystemHandlers
	statusMonitor  *StatusMonitor
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	reportWriter := cfg.Report
	if reportWriter == nil {
		reportWriter = report.NewWriter(report.DefaultOptions())
	}

	loader := cfg.Loader
	if loader == nil {
		loader = scenarios.NewLoader(cfg.Log)
	}

	statusMonitor := NewStatusMonitor(cfg.DB, cfg.Log)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		db:             cfg.DB,
		cfg:            cfg.Config,
		runner:         cfg.Runner,
		simulator:      cfg.Simulator,
		service:        cfg.Service,
		report:         reportWriter,
		loader:         loader,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.DB, statusMonitor, cfg.Config),
		statusMonitor:  statusMonitor,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // the Monte Carlo stream stays open for the whole simulation
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5, "application/json", "text/plain"))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	pipelineHandler := pipelinehandlers.NewHandler(s.runner, s.loader, s.report, s.log)
	montecarloHandler := montecarlohandlers.NewHandler(s.simulator, s.loader, s.log)
	scenarioHandler := scenariohandlers.NewHandler(s.service, s.loader, s.log)
	snapshotHandler := snapshothandlers.NewHandler(s.service, s.report, s.log)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Websocket stream lives outside the request timeout
		montecarloHandler.RegisterStreamRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			pipelineHandler.RegisterRoutes(r)
			montecarloHandler.RegisterRoutes(r)
			scenarioHandler.RegisterRoutes(r)
			snapshotHandler.RegisterRoutes(r)

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	// Start status monitor (check every 60 seconds)
	if s.statusMonitor != nil {
		s.statusMonitor.Start(60 * time.Second)
		s.log.Info().Msg("Status monitor started")
	}

	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	if s.statusMonitor != nil {
		s.statusMonitor.Stop()
	}
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
