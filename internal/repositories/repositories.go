package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/C-Ford17/eventos-app-sub001/internal/models"
)

func wrapLookup(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// UsuarioRepository provides access to user accounts
type UsuarioRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewUsuarioRepository creates a new user repository
func NewUsuarioRepository(db *gorm.DB, readOnlyDB *gorm.DB) *UsuarioRepository {
	return &UsuarioRepository{db: db, readOnlyDB: readOnlyDB}
}

// Create creates a new user
func (r *UsuarioRepository) Create(ctx context.Context, usuario *models.Usuario) error {
	return r.db.WithContext(ctx).Create(usuario).Error
}

// GetByID gets a user by ID
func (r *UsuarioRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Usuario, error) {
	var usuario models.Usuario
	err := r.readOnlyDB.WithContext(ctx).First(&usuario, "id = ?", id).Error
	if err != nil {
		return nil, wrapLookup(err, "failed to get user by ID")
	}
	return &usuario, nil
}

// GetByEmail gets a user by email
func (r *UsuarioRepository) GetByEmail(ctx context.Context, email string) (*models.Usuario, error) {
	var usuario models.Usuario
	err := r.readOnlyDB.WithContext(ctx).Where("email = ?", email).First(&usuario).Error
	if err != nil {
		return nil, wrapLookup(err, "failed to get user by email")
	}
	return &usuario, nil
}

// SetBloqueado flips the blocked flag on a user
func (r *UsuarioRepository) SetBloqueado(ctx context.Context, id uuid.UUID, bloqueado bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Usuario{}).
		Where("id = ?", id).
		Update("bloqueado", bloqueado)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update user blocked flag")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CategoriaRepository provides access to categories
type CategoriaRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewCategoriaRepository creates a new category repository
func NewCategoriaRepository(db *gorm.DB, readOnlyDB *gorm.DB) *CategoriaRepository {
	return &CategoriaRepository{db: db, readOnlyDB: readOnlyDB}
}

// Create creates a new category
func (r *CategoriaRepository) Create(ctx context.Context, categoria *models.Categoria) error {
	return r.db.WithContext(ctx).Create(categoria).Error
}

// List lists all categories
func (r *CategoriaRepository) List(ctx context.Context) ([]models.Categoria, error) {
	var categorias []models.Categoria
	err := r.readOnlyDB.WithContext(ctx).Order("nombre").Find(&categorias).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list categories")
	}
	return categorias, nil
}

// EventoRepository provides access to events
type EventoRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewEventoRepository creates a new event repository
func NewEventoRepository(db *gorm.DB, readOnlyDB *gorm.DB) *EventoRepository {
	return &EventoRepository{db: db, readOnlyDB: readOnlyDB}
}

// Create creates a new event
func (r *EventoRepository) Create(ctx context.Context, evento *models.Evento) error {
	return r.db.WithContext(ctx).Create(evento).Error
}

// Update persists event field changes
func (r *EventoRepository) Update(ctx context.Context, evento *models.Evento) error {
	return r.db.WithContext(ctx).Save(evento).Error
}

// GetByID gets an event by ID
func (r *EventoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Evento, error) {
	var evento models.Evento
	err := r.readOnlyDB.WithContext(ctx).First(&evento, "id = ?", id).Error
	if err != nil {
		return nil, wrapLookup(err, "failed to get event by ID")
	}
	return &evento, nil
}

// ListPublicados lists published, unblocked events
func (r *EventoRepository) ListPublicados(ctx context.Context, limit, offset int) ([]models.Evento, error) {
	var eventos []models.Evento
	err := r.readOnlyDB.WithContext(ctx).
		Where("estado = ? AND bloqueado = ?", models.EventoPublicado, false).
		Order("fecha_inicio").
		Limit(limit).
		Offset(offset).
		Find(&eventos).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list published events")
	}
	return eventos, nil
}

// ListByOrganizador lists an organizer's events
func (r *EventoRepository) ListByOrganizador(ctx context.Context, organizadorID uuid.UUID) ([]models.Evento, error) {
	var eventos []models.Evento
	err := r.readOnlyDB.WithContext(ctx).
		Where("organizador_id = ?", organizadorID).
		Order("fecha_inicio").
		Find(&eventos).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list organizer events")
	}
	return eventos, nil
}

// SetEstado updates the event lifecycle state
func (r *EventoRepository) SetEstado(ctx context.Context, id uuid.UUID, estado string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Evento{}).
		Where("id = ?", id).
		Update("estado", estado)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update event state")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBloqueado flips the blocked flag on an event
func (r *EventoRepository) SetBloqueado(ctx context.Context, id uuid.UUID, bloqueado bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Evento{}).
		Where("id = ?", id).
		Update("bloqueado", bloqueado)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update event blocked flag")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountEntradasComprometidas returns how many tickets an event has in
// pending or confirmed reservations.
func (r *EventoRepository) CountEntradasComprometidas(ctx context.Context, eventoID uuid.UUID) (int64, error) {
	var total int64
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.Reserva{}).
		Select("COALESCE(SUM(cantidad), 0)").
		Where("evento_id = ? AND estado_reserva IN ?", eventoID,
			[]string{models.ReservaPendiente, models.ReservaConfirmada}).
		Scan(&total).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count committed tickets")
	}
	return total, nil
}

// ServicioRepository provides access to provider services
type ServicioRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewServicioRepository creates a new service repository
func NewServicioRepository(db *gorm.DB, readOnlyDB *gorm.DB) *ServicioRepository {
	return &ServicioRepository{db: db, readOnlyDB: readOnlyDB}
}

// Create creates a new service
func (r *ServicioRepository) Create(ctx context.Context, servicio *models.Servicio) error {
	return r.db.WithContext(ctx).Create(servicio).Error
}

// GetByID gets a service by ID
func (r *ServicioRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Servicio, error) {
	var servicio models.Servicio
	err := r.readOnlyDB.WithContext(ctx).First(&servicio, "id = ?", id).Error
	if err != nil {
		return nil, wrapLookup(err, "failed to get service by ID")
	}
	return &servicio, nil
}

// List lists unblocked services
func (r *ServicioRepository) List(ctx context.Context, limit, offset int) ([]models.Servicio, error) {
	var servicios []models.Servicio
	err := r.readOnlyDB.WithContext(ctx).
		Where("bloqueado = ?", false).
		Limit(limit).
		Offset(offset).
		Find(&servicios).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list services")
	}
	return servicios, nil
}

// SetBloqueado flips the blocked flag on a service
func (r *ServicioRepository) SetBloqueado(ctx context.Context, id uuid.UUID, bloqueado bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Servicio{}).
		Where("id = ?", id).
		Update("bloqueado", bloqueado)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update service blocked flag")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
