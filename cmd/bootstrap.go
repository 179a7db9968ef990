package cmd

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/C-Ford17/eventos-app-sub001/config"
	"github.com/C-Ford17/eventos-app-sub001/internal/api"
	"github.com/C-Ford17/eventos-app-sub001/internal/cache"
	"github.com/C-Ford17/eventos-app-sub001/internal/gateway"
	"github.com/C-Ford17/eventos-app-sub001/internal/messaging"
	"github.com/C-Ford17/eventos-app-sub001/internal/metrics"
	"github.com/C-Ford17/eventos-app-sub001/internal/models"
	"github.com/C-Ford17/eventos-app-sub001/internal/repositories"
	"github.com/C-Ford17/eventos-app-sub001/internal/search"
	"github.com/C-Ford17/eventos-app-sub001/internal/services"
)

// initDatabases opens the write and read-only connections and runs
// migrations on the write side.
func initDatabases(cfg config.Config) (*gorm.DB, *gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to write database")
	}

	readOnlyDB, err := gorm.Open(postgres.Open(cfg.DB.ReadOnlyDSN), &gorm.Config{})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to read-only database")
	}

	if err := models.SetupModels(db); err != nil {
		return nil, nil, errors.Wrap(err, "failed to run migrations")
	}

	for _, handle := range []*gorm.DB{db, readOnlyDB} {
		sqlDB, err := handle.DB()
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to get underlying DB connection")
		}
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	}

	return db, readOnlyDB, nil
}

// application holds everything a command needs once wiring is done
type application struct {
	svcs       api.Services
	repos      api.Repos
	dispatcher *services.NotificationDispatcher
	collector  *metrics.Metrics
}

// buildApplication wires repositories, infrastructure clients and services.
// Cache, search and bus failures degrade to warnings; the relational store
// is the only hard dependency.
func buildApplication(cfg config.Config, db, readOnlyDB *gorm.DB, bus messaging.ServiceBusClient) (*application, error) {
	usuarioRepo := repositories.NewUsuarioRepository(db, readOnlyDB)
	categoriaRepo := repositories.NewCategoriaRepository(db, readOnlyDB)
	eventoRepo := repositories.NewEventoRepository(db, readOnlyDB)
	servicioRepo := repositories.NewServicioRepository(db, readOnlyDB)
	reservaRepo := repositories.NewReservaRepository(db, readOnlyDB)
	pagoRepo := repositories.NewPagoRepository(db, readOnlyDB)
	entradaRepo := repositories.NewEntradaRepository(db, readOnlyDB)
	notificacionRepo := repositories.NewNotificacionRepository(db, readOnlyDB)
	auditRepo := repositories.NewAuditoriaRepository(db, readOnlyDB)
	reporteRepo := repositories.NewReporteRepository(db, readOnlyDB)
	reembolsoRepo := repositories.NewReembolsoRepository(db, readOnlyDB)
	credencialRepo := repositories.NewCredencialPasarelaRepository(db, readOnlyDB)
	webhookRepo := repositories.NewEventoWebhookRepository(db, readOnlyDB)

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
	}

	collector := metrics.NewMetrics()
	gatewayClient := gateway.NewClient(cfg.MercadoPago)
	cipher := gateway.NewTokenCipher(cfg.Auth.GatewayTokKey)
	dispatcher := services.NewNotificationDispatcher(bus, notificacionRepo)

	accountService := services.NewAccountService(
		usuarioRepo, credencialRepo, gatewayClient, cipher,
		cfg.Auth.JWTSecret, cfg.Auth.TokenTTL,
	)
	eventService := services.NewEventService(
		eventoRepo, categoriaRepo, servicioRepo, usuarioRepo,
		redisCache, elasticClient,
	)
	reservationService := services.NewReservationService(
		reservaRepo, pagoRepo, entradaRepo, eventoRepo, usuarioRepo,
		reembolsoRepo, auditRepo, gatewayClient, dispatcher, collector, cfg,
	)
	validationService := services.NewValidationService(reservaRepo, entradaRepo, auditRepo, collector)
	moderationService := services.NewModerationService(
		usuarioRepo, eventoRepo, servicioRepo, reporteRepo, auditRepo, dispatcher,
		func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
			evento, err := eventoRepo.GetByID(ctx, id)
			if err != nil {
				return uuid.Nil, err
			}
			return evento.OrganizadorID, nil
		},
		func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
			servicio, err := servicioRepo.GetByID(ctx, id)
			if err != nil {
				return uuid.Nil, err
			}
			return servicio.ProveedorID, nil
		},
		eventService,
	)

	return &application{
		svcs: api.Services{
			Account:     accountService,
			Events:      eventService,
			Reservation: reservationService,
			Validation:  validationService,
			Moderation:  moderationService,
		},
		repos: api.Repos{
			Notificaciones: notificacionRepo,
			Auditoria:      auditRepo,
			Webhooks:       webhookRepo,
		},
		dispatcher: dispatcher,
		collector:  collector,
	}, nil
}
