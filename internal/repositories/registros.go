package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/C-Ford17/eventos-app-sub001/internal/models"
)

// Audit listing is capped regardless of what the caller asks for.
const maxAuditPageSize = 100

// NotificacionRepository provides access to notifications
type NotificacionRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewNotificacionRepository creates a new notification repository
func NewNotificacionRepository(db *gorm.DB, readOnlyDB *gorm.DB) *NotificacionRepository {
	return &NotificacionRepository{db: db, readOnlyDB: readOnlyDB}
}

// Create creates a new notification
func (r *NotificacionRepository) Create(ctx context.Context, notificacion *models.Notificacion) error {
	return r.db.WithContext(ctx).Create(notificacion).Error
}

// ListByUsuario lists a user's notifications, newest first
func (r *NotificacionRepository) ListByUsuario(ctx context.Context, usuarioID uuid.UUID, limit int) ([]models.Notificacion, error) {
	var notificaciones []models.Notificacion
	err := r.readOnlyDB.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notificaciones).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	return notificaciones, nil
}

// MarkLeida flips the read flag on a notification
func (r *NotificacionRepository) MarkLeida(ctx context.Context, id, usuarioID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Notificacion{}).
		Where("id = ? AND usuario_id = ?", id, usuarioID).
		Update("leida", true)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to mark notification as read")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AuditoriaRepository provides access to the append-only audit log
type AuditoriaRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewAuditoriaRepository creates a new audit log repository
func NewAuditoriaRepository(db *gorm.DB, readOnlyDB *gorm.DB) *AuditoriaRepository {
	return &AuditoriaRepository{db: db, readOnlyDB: readOnlyDB}
}

// Create appends an audit entry
func (r *AuditoriaRepository) Create(ctx context.Context, entrada *models.Auditoria) error {
	return r.db.WithContext(ctx).Create(entrada).Error
}

// List returns audit entries in reverse chronological order
func (r *AuditoriaRepository) List(ctx context.Context, limit, offset int) ([]models.Auditoria, error) {
	if limit <= 0 || limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}
	var entradas []models.Auditoria
	err := r.readOnlyDB.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entradas).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list audit entries")
	}
	return entradas, nil
}

// ReporteRepository provides access to user reports
type ReporteRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewReporteRepository creates a new report repository
func NewReporteRepository(db *gorm.DB, readOnlyDB *gorm.DB) *ReporteRepository {
	return &ReporteRepository{db: db, readOnlyDB: readOnlyDB}
}

// Create creates a new report
func (r *ReporteRepository) Create(ctx context.Context, reporte *models.Reporte) error {
	return r.db.WithContext(ctx).Create(reporte).Error
}

// GetByID gets a report by ID
func (r *ReporteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Reporte, error) {
	var reporte models.Reporte
	err := r.readOnlyDB.WithContext(ctx).First(&reporte, "id = ?", id).Error
	if err != nil {
		return nil, wrapLookup(err, "failed to get report by ID")
	}
	return &reporte, nil
}

// ListByEstado lists reports in a given review state
func (r *ReporteRepository) ListByEstado(ctx context.Context, estado string, limit int) ([]models.Reporte, error) {
	var reportes []models.Reporte
	err := r.readOnlyDB.WithContext(ctx).
		Where("estado = ?", estado).
		Order("created_at").
		Limit(limit).
		Find(&reportes).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list reports by state")
	}
	return reportes, nil
}

// SetEstadoIf moves a report along its review progression, guarded on the
// expected prior state.
func (r *ReporteRepository) SetEstadoIf(ctx context.Context, id uuid.UUID, from, to string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Reporte{}).
		Where("id = ? AND estado = ?", id, from).
		Update("estado", to)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to transition report state")
	}
	if result.RowsAffected == 0 {
		return ErrNoTransition
	}
	return nil
}

// ReembolsoRepository provides access to refund requests
type ReembolsoRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewReembolsoRepository creates a new refund request repository
func NewReembolsoRepository(db *gorm.DB, readOnlyDB *gorm.DB) *ReembolsoRepository {
	return &ReembolsoRepository{db: db, readOnlyDB: readOnlyDB}
}

// Create creates a new refund request
func (r *ReembolsoRepository) Create(ctx context.Context, solicitud *models.SolicitudReembolso) error {
	return r.db.WithContext(ctx).Create(solicitud).Error
}

// ListByUsuario lists a user's refund requests
func (r *ReembolsoRepository) ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]models.SolicitudReembolso, error) {
	var solicitudes []models.SolicitudReembolso
	err := r.readOnlyDB.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		Order("created_at DESC").
		Find(&solicitudes).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list refund requests")
	}
	return solicitudes, nil
}

// CredencialPasarelaRepository stores encrypted gateway OAuth tokens
type CredencialPasarelaRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewCredencialPasarelaRepository creates a new gateway credential repository
func NewCredencialPasarelaRepository(db *gorm.DB, readOnlyDB *gorm.DB) *CredencialPasarelaRepository {
	return &CredencialPasarelaRepository{db: db, readOnlyDB: readOnlyDB}
}

// Upsert creates or replaces the credential for a user
func (r *CredencialPasarelaRepository) Upsert(ctx context.Context, credencial *models.CredencialPasarela) error {
	var existente models.CredencialPasarela
	err := r.db.WithContext(ctx).
		Where("usuario_id = ?", credencial.UsuarioID).
		First(&existente).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.WithContext(ctx).Create(credencial).Error
		}
		return errors.Wrap(err, "failed to look up gateway credential")
	}
	credencial.ID = existente.ID
	credencial.CreatedAt = existente.CreatedAt
	return r.db.WithContext(ctx).Save(credencial).Error
}

// GetByUsuario gets the credential for a user
func (r *CredencialPasarelaRepository) GetByUsuario(ctx context.Context, usuarioID uuid.UUID) (*models.CredencialPasarela, error) {
	var credencial models.CredencialPasarela
	err := r.readOnlyDB.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		First(&credencial).Error
	if err != nil {
		return nil, wrapLookup(err, "failed to get gateway credential")
	}
	return &credencial, nil
}

// EventoWebhookRepository stores received webhook notifications
type EventoWebhookRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewEventoWebhookRepository creates a new webhook event repository
func NewEventoWebhookRepository(db *gorm.DB, readOnlyDB *gorm.DB) *EventoWebhookRepository {
	return &EventoWebhookRepository{db: db, readOnlyDB: readOnlyDB}
}

// Create records a received webhook
func (r *EventoWebhookRepository) Create(ctx context.Context, evento *models.EventoWebhook) error {
	return r.db.WithContext(ctx).Create(evento).Error
}

// MarkProcesado stamps the webhook row with the processing outcome
func (r *EventoWebhookRepository) MarkProcesado(ctx context.Context, id uuid.UUID, procesadoAt time.Time, errorDetalle string) error {
	result := r.db.WithContext(ctx).
		Model(&models.EventoWebhook{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"procesado_at":  procesadoAt,
			"error_detalle": errorDetalle,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to mark webhook as processed")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
