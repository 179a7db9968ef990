package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/C-Ford17/eventos-app-sub001/internal/cache"
	"github.com/C-Ford17/eventos-app-sub001/internal/models"
	"github.com/C-Ford17/eventos-app-sub001/internal/repositories"
	"github.com/C-Ford17/eventos-app-sub001/internal/search"
)

// How long event reads live in cache before a forced refresh
const eventoCacheTTL = 5 * time.Minute

// EventService manages the organizer-facing event catalog
type EventService struct {
	eventoRepo    *repositories.EventoRepository
	categoriaRepo *repositories.CategoriaRepository
	servicioRepo  *repositories.ServicioRepository
	usuarioRepo   *repositories.UsuarioRepository
	redisCache    *cache.RedisCache
	elasticClient *search.ElasticClient
}

// NewEventService creates a new event catalog service
func NewEventService(
	eventoRepo *repositories.EventoRepository,
	categoriaRepo *repositories.CategoriaRepository,
	servicioRepo *repositories.ServicioRepository,
	usuarioRepo *repositories.UsuarioRepository,
	redisCache *cache.RedisCache,
	elasticClient *search.ElasticClient,
) *EventService {
	return &EventService{
		eventoRepo:    eventoRepo,
		categoriaRepo: categoriaRepo,
		servicioRepo:  servicioRepo,
		usuarioRepo:   usuarioRepo,
		redisCache:    redisCache,
		elasticClient: elasticClient,
	}
}

// EventoInput carries the mutable event fields
type EventoInput struct {
	Nombre        string
	Descripcion   string
	Lugar         string
	FechaInicio   time.Time
	FechaFin      time.Time
	Capacidad     int
	PrecioEntrada float64
	CategoriaID   *uuid.UUID
}

// CrearEvento creates a draft event for the organizer
func (s *EventService) CrearEvento(ctx context.Context, organizadorID uuid.UUID, input EventoInput) (*models.Evento, error) {
	if input.Nombre == "" || input.Capacidad <= 0 {
		return nil, errors.Wrap(ErrEstadoInvalido, "nombre and capacidad are required")
	}
	if !input.FechaFin.After(input.FechaInicio) {
		return nil, errors.Wrap(ErrEstadoInvalido, "fecha_fin must be after fecha_inicio")
	}

	evento := &models.Evento{
		ID:            uuid.New(),
		OrganizadorID: organizadorID,
		CategoriaID:   input.CategoriaID,
		Nombre:        input.Nombre,
		Descripcion:   input.Descripcion,
		Lugar:         input.Lugar,
		FechaInicio:   input.FechaInicio,
		FechaFin:      input.FechaFin,
		Capacidad:     input.Capacidad,
		PrecioEntrada: input.PrecioEntrada,
		Estado:        models.EventoBorrador,
	}
	if err := s.eventoRepo.Create(ctx, evento); err != nil {
		return nil, errors.Wrap(err, "failed to create event")
	}
	return evento, nil
}

// ActualizarEvento updates an event owned by the organizer
func (s *EventService) ActualizarEvento(ctx context.Context, organizadorID, eventoID uuid.UUID, input EventoInput) (*models.Evento, error) {
	evento, err := s.eventoRepo.GetByID(ctx, eventoID)
	if err != nil {
		return nil, err
	}
	if evento.OrganizadorID != organizadorID {
		return nil, ErrNoAutorizado
	}

	evento.Nombre = input.Nombre
	evento.Descripcion = input.Descripcion
	evento.Lugar = input.Lugar
	evento.FechaInicio = input.FechaInicio
	evento.FechaFin = input.FechaFin
	evento.Capacidad = input.Capacidad
	evento.PrecioEntrada = input.PrecioEntrada
	evento.CategoriaID = input.CategoriaID

	if err := s.eventoRepo.Update(ctx, evento); err != nil {
		return nil, errors.Wrap(err, "failed to update event")
	}

	s.invalidate(ctx, eventoID)
	return evento, nil
}

// PublicarEvento moves a draft event to publicado and indexes it for search
func (s *EventService) PublicarEvento(ctx context.Context, organizadorID, eventoID uuid.UUID) error {
	evento, err := s.eventoRepo.GetByID(ctx, eventoID)
	if err != nil {
		return err
	}
	if evento.OrganizadorID != organizadorID {
		return ErrNoAutorizado
	}
	if evento.Estado != models.EventoBorrador {
		return errors.Wrapf(ErrEstadoInvalido, "event is %s", evento.Estado)
	}

	if err := s.eventoRepo.SetEstado(ctx, eventoID, models.EventoPublicado); err != nil {
		return errors.Wrap(err, "failed to publish event")
	}
	evento.Estado = models.EventoPublicado

	s.indexEvento(ctx, evento)
	s.invalidate(ctx, eventoID)
	return nil
}

// GetEvento returns an event, read-through cached
func (s *EventService) GetEvento(ctx context.Context, eventoID uuid.UUID) (*models.Evento, error) {
	key := cache.GetEventoCacheKey(eventoID)

	if s.redisCache != nil {
		var cached models.Evento
		if err := s.redisCache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	evento, err := s.eventoRepo.GetByID(ctx, eventoID)
	if err != nil {
		return nil, err
	}

	if s.redisCache != nil {
		if err := s.redisCache.Set(ctx, key, evento, eventoCacheTTL); err != nil {
			log.Debug().Err(err).Str("evento_id", eventoID.String()).Msg("Failed to cache event")
		}
	}
	return evento, nil
}

// ListPublicados lists published events
func (s *EventService) ListPublicados(ctx context.Context, limit, offset int) ([]models.Evento, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.eventoRepo.ListPublicados(ctx, limit, offset)
}

// ListByOrganizador lists the organizer's own events
func (s *EventService) ListByOrganizador(ctx context.Context, organizadorID uuid.UUID) ([]models.Evento, error) {
	return s.eventoRepo.ListByOrganizador(ctx, organizadorID)
}

// Buscar runs a full-text search over published events, falling back to a
// plain listing when the search cluster is unavailable.
func (s *EventService) Buscar(ctx context.Context, texto string, limit int) ([]map[string]interface{}, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	if s.elasticClient != nil {
		docs, err := s.elasticClient.SearchEventos(ctx, texto, limit)
		if err == nil {
			return docs, nil
		}
		log.Warn().Err(err).Msg("Search cluster unavailable, falling back to listing")
	}

	eventos, err := s.eventoRepo.ListPublicados(ctx, limit, 0)
	if err != nil {
		return nil, err
	}
	fallback := make([]map[string]interface{}, 0, len(eventos))
	for _, evento := range eventos {
		fallback = append(fallback, map[string]interface{}{
			"id":           evento.ID.String(),
			"nombre":       evento.Nombre,
			"descripcion":  evento.Descripcion,
			"lugar":        evento.Lugar,
			"fecha_inicio": evento.FechaInicio,
			"fecha_fin":    evento.FechaFin,
			"precio":       evento.PrecioEntrada,
			"capacidad":    evento.Capacidad,
		})
	}
	return fallback, nil
}

// RemoverDeLectura evicts an event from the detail cache and drops it from
// the search index. Called when moderation blocks the event so stale copies
// stop being served.
func (s *EventService) RemoverDeLectura(ctx context.Context, eventoID uuid.UUID) {
	s.invalidate(ctx, eventoID)
	if s.elasticClient == nil {
		return
	}
	if err := s.elasticClient.DeleteEvento(ctx, eventoID.String()); err != nil {
		log.Warn().Err(err).Str("evento_id", eventoID.String()).
			Msg("Failed to remove event from search index")
	}
}

// RestaurarLectura refreshes the read side after an event is unblocked:
// the cache entry is evicted and a published event is indexed again.
func (s *EventService) RestaurarLectura(ctx context.Context, eventoID uuid.UUID) {
	s.invalidate(ctx, eventoID)
	evento, err := s.eventoRepo.GetByID(ctx, eventoID)
	if err != nil {
		log.Warn().Err(err).Str("evento_id", eventoID.String()).
			Msg("Could not load event to restore search document")
		return
	}
	if evento.Estado == models.EventoPublicado && !evento.Bloqueado {
		s.indexEvento(ctx, evento)
	}
}

// ListCategorias lists event categories
func (s *EventService) ListCategorias(ctx context.Context) ([]models.Categoria, error) {
	return s.categoriaRepo.List(ctx)
}

// CrearServicio registers a provider's auxiliary service
func (s *EventService) CrearServicio(ctx context.Context, proveedorID uuid.UUID, nombre, descripcion string, precio float64) (*models.Servicio, error) {
	if nombre == "" {
		return nil, errors.Wrap(ErrEstadoInvalido, "nombre is required")
	}
	servicio := &models.Servicio{
		ID:          uuid.New(),
		ProveedorID: proveedorID,
		Nombre:      nombre,
		Descripcion: descripcion,
		Precio:      precio,
	}
	if err := s.servicioRepo.Create(ctx, servicio); err != nil {
		return nil, errors.Wrap(err, "failed to create service")
	}
	return servicio, nil
}

// ListServicios lists unblocked provider services
func (s *EventService) ListServicios(ctx context.Context, limit, offset int) ([]models.Servicio, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.servicioRepo.List(ctx, limit, offset)
}

func (s *EventService) indexEvento(ctx context.Context, evento *models.Evento) {
	if s.elasticClient == nil {
		return
	}
	organizador := ""
	if usuario, err := s.usuarioRepo.GetByID(ctx, evento.OrganizadorID); err == nil {
		organizador = usuario.Nombre
	}
	categoria := ""
	// Category names ride along in the search document
	if evento.CategoriaID != nil {
		categorias, err := s.categoriaRepo.List(ctx)
		if err == nil {
			for _, c := range categorias {
				if c.ID == *evento.CategoriaID {
					categoria = c.Nombre
					break
				}
			}
		}
	}

	if err := s.elasticClient.IndexEvento(ctx, evento, organizador, categoria); err != nil {
		log.Warn().Err(err).Str("evento_id", evento.ID.String()).
			Msg("Failed to index event, search results may lag")
	}
}

func (s *EventService) invalidate(ctx context.Context, eventoID uuid.UUID) {
	if s.redisCache == nil {
		return
	}
	if err := s.redisCache.Delete(ctx, cache.GetEventoCacheKey(eventoID)); err != nil {
		log.Debug().Err(err).Str("evento_id", eventoID.String()).Msg("Failed to evict event from cache")
	}
}
