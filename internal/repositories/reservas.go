package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/C-Ford17/eventos-app-sub001/internal/models"
)

// ReservaRepository provides access to reservations
type ReservaRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewReservaRepository creates a new reservation repository
func NewReservaRepository(db *gorm.DB, readOnlyDB *gorm.DB) *ReservaRepository {
	return &ReservaRepository{db: db, readOnlyDB: readOnlyDB}
}

// Create creates a new reservation
func (r *ReservaRepository) Create(ctx context.Context, reserva *models.Reserva) error {
	return r.db.WithContext(ctx).Create(reserva).Error
}

// GetByID gets a reservation by ID
func (r *ReservaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Reserva, error) {
	var reserva models.Reserva
	err := r.readOnlyDB.WithContext(ctx).First(&reserva, "id = ?", id).Error
	if err != nil {
		return nil, wrapLookup(err, "failed to get reservation by ID")
	}
	return &reserva, nil
}

// ListByUsuario lists an attendee's reservations, newest first
func (r *ReservaRepository) ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]models.Reserva, error) {
	var reservas []models.Reserva
	err := r.readOnlyDB.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		Order("created_at DESC").
		Find(&reservas).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list reservations by user")
	}
	return reservas, nil
}

// SetEstado sets the reservation state unconditionally
func (r *ReservaRepository) SetEstado(ctx context.Context, id uuid.UUID, estado string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Reserva{}).
		Where("id = ?", id).
		Update("estado_reserva", estado)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update reservation state")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEstadoIf moves the reservation state only when it still holds the
// expected prior state. Returns ErrNoTransition when another writer got
// there first, which callers treat as an idempotent no-op.
func (r *ReservaRepository) SetEstadoIf(ctx context.Context, id uuid.UUID, from, to string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Reserva{}).
		Where("id = ? AND estado_reserva = ?", id, from).
		Update("estado_reserva", to)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to transition reservation state")
	}
	if result.RowsAffected == 0 {
		return ErrNoTransition
	}
	return nil
}

// GetStalePendientes returns pending reservations created before the cutoff
func (r *ReservaRepository) GetStalePendientes(ctx context.Context, cutoff time.Time, limit int) ([]models.Reserva, error) {
	var reservas []models.Reserva
	err := r.readOnlyDB.WithContext(ctx).
		Where("estado_reserva = ? AND created_at < ?", models.ReservaPendiente, cutoff).
		Limit(limit).
		Find(&reservas).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stale pending reservations")
	}
	return reservas, nil
}

// PagoRepository provides access to payment records
type PagoRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewPagoRepository creates a new payment repository
func NewPagoRepository(db *gorm.DB, readOnlyDB *gorm.DB) *PagoRepository {
	return &PagoRepository{db: db, readOnlyDB: readOnlyDB}
}

// Create creates a new payment record
func (r *PagoRepository) Create(ctx context.Context, pago *models.Pago) error {
	return r.db.WithContext(ctx).Create(pago).Error
}

// SetEstadoByReserva applies a transaction state to every payment row of a
// reservation. Retried payments all converge to the same final state.
func (r *PagoRepository) SetEstadoByReserva(ctx context.Context, reservaID uuid.UUID, estado string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Pago{}).
		Where("reserva_id = ?", reservaID).
		Update("estado_transaccion", estado).Error
	if err != nil {
		return errors.Wrap(err, "failed to update payment states for reservation")
	}
	return nil
}

// SetReferenciaExterna records the gateway reference on a payment row
func (r *PagoRepository) SetReferenciaExterna(ctx context.Context, id uuid.UUID, ref string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Pago{}).
		Where("id = ?", id).
		Update("referencia_externa", ref)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to set external payment reference")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// EntradaRepository provides access to access credentials
type EntradaRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewEntradaRepository creates a new credential repository
func NewEntradaRepository(db *gorm.DB, readOnlyDB *gorm.DB) *EntradaRepository {
	return &EntradaRepository{db: db, readOnlyDB: readOnlyDB}
}

// Create creates a new credential
func (r *EntradaRepository) Create(ctx context.Context, entrada *models.Entrada) error {
	return r.db.WithContext(ctx).Create(entrada).Error
}

// GetByReserva gets the credential bound to a reservation
func (r *EntradaRepository) GetByReserva(ctx context.Context, reservaID uuid.UUID) (*models.Entrada, error) {
	var entrada models.Entrada
	err := r.readOnlyDB.WithContext(ctx).
		Where("reserva_id = ?", reservaID).
		First(&entrada).Error
	if err != nil {
		return nil, wrapLookup(err, "failed to get credential by reservation")
	}
	return &entrada, nil
}

// MarkValidado consumes the credential. The UPDATE is guarded on the prior
// pendiente state so two concurrent scans cannot both succeed; the loser
// gets ErrNoTransition.
func (r *EntradaRepository) MarkValidado(ctx context.Context, id uuid.UUID, at time.Time, staffID *uuid.UUID) error {
	updates := map[string]interface{}{
		"estado_validacion": models.ValidacionValidado,
		"validado_at":       at,
	}
	if staffID != nil {
		updates["validado_por"] = *staffID
	}
	result := r.db.WithContext(ctx).
		Model(&models.Entrada{}).
		Where("id = ? AND estado_validacion = ?", id, models.ValidacionPendiente).
		Updates(updates)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to mark credential as validated")
	}
	if result.RowsAffected == 0 {
		return ErrNoTransition
	}
	return nil
}
