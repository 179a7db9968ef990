package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/C-Ford17/eventos-app-sub001/config"
	"github.com/C-Ford17/eventos-app-sub001/internal/api/handlers"
	"github.com/C-Ford17/eventos-app-sub001/internal/metrics"
	"github.com/C-Ford17/eventos-app-sub001/internal/repositories"
	"github.com/C-Ford17/eventos-app-sub001/internal/services"
	"github.com/C-Ford17/eventos-app-sub001/internal/tracing"
)

// Services groups the application services the HTTP surface depends on
type Services struct {
	Account     *services.AccountService
	Events      *services.EventService
	Reservation *services.ReservationService
	Validation  *services.ValidationService
	Moderation  *services.ModerationService
}

// Repos groups the repositories the HTTP surface reads directly
type Repos struct {
	Notificaciones *repositories.NotificacionRepository
	Auditoria      *repositories.AuditoriaRepository
	Webhooks       *repositories.EventoWebhookRepository
}

// Server represents the HTTP server
type Server struct {
	config     config.Config
	router     *gin.Engine
	httpServer *http.Server
	svcs       Services
	repos      Repos
	collector  *metrics.Metrics
	tracer     tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, svcs Services, repos Repos, collector *metrics.Metrics, tracer tracing.Tracer) *Server {
	server := &Server{
		config:    cfg,
		svcs:      svcs,
		repos:     repos,
		collector: collector,
		tracer:    tracer,
	}

	router := server.setupRouter()
	server.router = router

	server.httpServer = &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: router,
	}

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())

	if s.tracer != nil {
		if app := s.tracer.Application(); app != nil {
			router.Use(nrgin.Middleware(app))
		}
	}

	jwtSecret := s.config.Auth.JWTSecret

	handlers.NewAuthHandler(s.svcs.Account).RegisterRoutes(router, jwtSecret)
	handlers.NewEventoHandler(s.svcs.Events).RegisterRoutes(router, jwtSecret)
	handlers.NewReservaHandler(s.svcs.Reservation, s.svcs.Validation).RegisterRoutes(router, jwtSecret)
	handlers.NewAdminHandler(s.svcs.Moderation, s.svcs.Reservation, s.repos.Auditoria).RegisterRoutes(router, jwtSecret)
	handlers.NewNotificacionHandler(s.repos.Notificaciones).RegisterRoutes(router, jwtSecret)
	handlers.NewWebhookHandler(s.svcs.Reservation, s.repos.Webhooks, s.collector, s.config.MercadoPago.WebhookSecret).RegisterRoutes(router)
	handlers.NewMetricsHandler(s.collector).RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
