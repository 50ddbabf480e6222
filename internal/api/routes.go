package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maumercado/task-queue-go/internal/api/handlers"
	apiMiddleware "github.com/maumercado/task-queue-go/internal/api/middleware"
	"github.com/maumercado/task-queue-go/internal/api/websocket"
	"github.com/maumercado/task-queue-go/internal/config"
	"github.com/maumercado/task-queue-go/internal/events"
	"github.com/maumercado/task-queue-go/internal/host"
	"github.com/maumercado/task-queue-go/internal/scheduler"
)

// Server represents the HTTP control API server (SPEC_FULL.md §13).
type Server struct {
	router       *chi.Mux
	driver       *host.Driver
	config       *config.Config
	taskHandler  *handlers.TaskHandler
	adminHandler *handlers.AdminHandler
	wsHub        *websocket.Hub
	wsHandler    *websocket.Handler
	publisher    *events.RedisPubSub
}

// NewServer creates a new HTTP server over driver, with registry backing
// the spawn endpoint's named factories.
func NewServer(cfg *config.Config, driver *host.Driver, registry *scheduler.Registry, stream *events.Stream, publisher *events.RedisPubSub) *Server {
	wsHub := websocket.NewHub(publisher)

	s := &Server{
		router:       chi.NewRouter(),
		driver:       driver,
		config:       cfg,
		taskHandler:  handlers.NewTaskHandler(driver, registry),
		adminHandler: handlers.NewAdminHandler(driver, stream),
		wsHub:        wsHub,
		wsHandler:    websocket.NewHandler(wsHub),
		publisher:    publisher,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(apiMiddleware.RequestLogger())
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Heartbeat("/health"))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		if s.config.Scheduler.RateLimitRPS > 0 {
			r.Use(apiMiddleware.ClientRateLimit(s.config.Scheduler.RateLimitRPS))
		}

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", s.taskHandler.Create)
			r.Get("/", s.taskHandler.List)
			r.Get("/{tid}", s.taskHandler.Get)
			r.Delete("/{tid}", s.taskHandler.Kill)
			r.Post("/{tid}/pause", s.taskHandler.Pause)
			r.Post("/{tid}/resume", s.taskHandler.Resume)
		})
	})

	s.router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		r.Get("/health", s.adminHandler.HealthCheck)
		r.Get("/stats", s.adminHandler.Stats)
		r.Post("/pause", s.adminHandler.Pause)
		r.Post("/resume", s.adminHandler.Resume)
		r.Post("/tasks/kill-all-except", s.adminHandler.KillAllExcept)
		r.Get("/events", s.adminHandler.Events)
	})

	s.router.Get("/ws", s.wsHandler.ServeWS)

	if s.config.Metrics.Enabled {
		s.router.Handle(s.config.Metrics.Path, promhttp.Handler())
	}
}

// Start starts the WebSocket hub and the scheduler driver loop.
func (s *Server) Start(ctx context.Context) {
	go s.wsHub.Run(ctx)
	s.driver.Start(ctx)
}

// Stop stops the WebSocket hub and the scheduler driver loop.
func (s *Server) Stop(ctx context.Context) {
	s.wsHub.Stop()
	s.driver.Stop(ctx)
}

// Router returns the chi router.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Publisher returns the event publisher.
func (s *Server) Publisher() *events.RedisPubSub {
	return s.publisher
}
