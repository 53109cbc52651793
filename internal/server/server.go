package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nvalkov/promptforge/internal/config"
	"github.com/nvalkov/promptforge/internal/optimizer"
	"github.com/nvalkov/promptforge/internal/server/handlers"
	"github.com/nvalkov/promptforge/internal/services"
	"github.com/nvalkov/promptforge/internal/store"
)

const ReadTimeout = 30 * time.Second

type Server struct {
	cfg    *config.Config
	router *chi.Mux
	server *http.Server
	hub    *Hub
}

func NewServer(
	cfg *config.Config,
	sessions *store.SessionStore,
	versions *store.VersionStore,
	optClient *optimizer.Client,
	optimizeSvc *services.OptimizeService,
	chatSvc *services.ChatService,
) *Server {
	hub := NewHub()
	router := chi.NewRouter()

	router.Use(Tracing("promptforge-api", router))
	router.Use(Recovery)
	router.Use(Logger)
	router.Use(CORS(cfg.Server.AllowedOrigins))

	healthH := handlers.NewHealthHandler(optClient)
	router.Get("/health", healthH.Liveness)
	router.Get("/health/live", healthH.Liveness)
	router.Get("/health/full", healthH.Health)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/api/v1/ws", hub.ServeWS)

	router.Route("/api/v1", func(r chi.Router) {
		samplesH := handlers.NewSamplesHandler(sessions)
		r.Get("/samples", samplesH.List)
		r.Post("/samples", samplesH.Create)

		optimizeH := handlers.NewOptimizeHandler(optimizeSvc, cfg.Optimizer.Timeout)
		r.Post("/optimize", optimizeH.Run)
		r.Get("/optimize", optimizeH.Status)
		r.Get("/optimize/status", optimizeH.Status)

		promptH := handlers.NewPromptHandler(versions)
		r.Get("/prompt", promptH.Get)

		versionsH := handlers.NewVersionsHandler(versions)
		r.Get("/versions", versionsH.List)

		configH := handlers.NewConfigHandler(versions)
		r.Get("/config", configH.Get)

		chatH := handlers.NewChatHandler(chatSvc)
		r.Post("/chat", chatH.Chat)
	})

	return &Server{
		cfg:    cfg,
		router: router,
		hub:    hub,
	}
}

func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: ReadTimeout,
		// Chat streaming and long optimization runs keep responses open.
		WriteTimeout: 0,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
