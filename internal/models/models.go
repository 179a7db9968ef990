package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Reservation states
const (
	ReservaPendiente  = "pendiente"
	ReservaConfirmada = "confirmada"
	ReservaRechazada  = "rechazada"
	ReservaCancelada  = "cancelada"
)

// Payment transaction states
const (
	PagoPendiente = "pendiente"
	PagoAprobado  = "aprobado"
	PagoRechazado = "rechazado"
)

// Credential validation states. Validado is terminal.
const (
	ValidacionPendiente = "pendiente"
	ValidacionValidado  = "validado"
)

// Event states
const (
	EventoBorrador   = "borrador"
	EventoPublicado  = "publicado"
	EventoFinalizado = "finalizado"
)

// Report review states
const (
	ReportePendiente  = "pendiente"
	ReporteEnRevision = "en_revision"
	ReporteResuelto   = "resuelto"
	ReporteRechazado  = "rechazado"
)

// Refund request states
const (
	ReembolsoSolicitado = "solicitado"
	ReembolsoAprobado   = "aprobado"
	ReembolsoRechazado  = "rechazado"
)

// User roles
const (
	RolAsistente   = "asistente"
	RolOrganizador = "organizador"
	RolProveedor   = "proveedor"
	RolStaff       = "staff"
	RolAdmin       = "admin"
)

// Usuario represents a platform account
type Usuario struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Nombre       string         `gorm:"not null" json:"nombre"`
	Email        string         `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Rol          string         `gorm:"not null;default:'asistente'" json:"rol"`
	Bloqueado    bool           `gorm:"not null;default:false" json:"bloqueado"`
	Reservas     []Reserva      `gorm:"foreignKey:UsuarioID" json:"-"`
}

// Categoria groups events
type Categoria struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Nombre    string         `gorm:"not null;uniqueIndex" json:"nombre"`
	Eventos   []Evento       `gorm:"foreignKey:CategoriaID" json:"-"`
}

// Evento represents a published or draft event. Events are never
// hard-deleted, only moved through soft states.
type Evento struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	OrganizadorID uuid.UUID     `gorm:"type:uuid;not null;index" json:"organizador_id"`
	CategoriaID  *uuid.UUID     `gorm:"type:uuid" json:"categoria_id"`
	Nombre       string         `gorm:"not null" json:"nombre"`
	Descripcion  string         `json:"descripcion"`
	Lugar        string         `json:"lugar"`
	FechaInicio  time.Time      `gorm:"not null" json:"fecha_inicio"`
	FechaFin     time.Time      `gorm:"not null" json:"fecha_fin"`
	Capacidad    int            `gorm:"not null" json:"capacidad"`
	PrecioEntrada float64       `gorm:"not null" json:"precio_entrada"`
	Estado       string         `gorm:"not null;default:'borrador';index" json:"estado"`
	Bloqueado    bool           `gorm:"not null;default:false" json:"bloqueado"`
	Organizador  Usuario        `gorm:"foreignKey:OrganizadorID" json:"-"`
	Categoria    *Categoria     `gorm:"foreignKey:CategoriaID" json:"-"`
	Reservas     []Reserva      `gorm:"foreignKey:EventoID" json:"-"`
}

// Servicio is an auxiliary service offered by a provider
type Servicio struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	ProveedorID uuid.UUID      `gorm:"type:uuid;not null;index" json:"proveedor_id"`
	Nombre      string         `gorm:"not null" json:"nombre"`
	Descripcion string         `json:"descripcion"`
	Precio      float64        `gorm:"not null" json:"precio"`
	Bloqueado   bool           `gorm:"not null;default:false" json:"bloqueado"`
	Proveedor   Usuario        `gorm:"foreignKey:ProveedorID" json:"-"`
}

// Reserva represents a ticket reservation. Created at checkout start in
// pendiente; moved by payment confirmation, cancellation or the stale sweep.
type Reserva struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	EventoID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"evento_id"`
	UsuarioID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"usuario_id"`
	Cantidad      int            `gorm:"not null" json:"cantidad"`
	PrecioTotal   float64        `gorm:"not null" json:"precio_total"`
	EstadoReserva string         `gorm:"not null;default:'pendiente';index" json:"estado_reserva"`
	Evento        Evento         `gorm:"foreignKey:EventoID" json:"-"`
	Usuario       Usuario        `gorm:"foreignKey:UsuarioID" json:"-"`
	Pagos         []Pago         `gorm:"foreignKey:ReservaID" json:"-"`
	Entrada       *Entrada       `gorm:"foreignKey:ReservaID" json:"-"`
}

// Pago is one payment attempt for a reservation. A reservation can carry
// several rows (retries); they are never mutated by the attendee directly.
type Pago struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
	ReservaID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"reserva_id"`
	ReferenciaExterna string         `gorm:"index" json:"referencia_externa"`
	Metodo            string         `json:"metodo"`
	Monto             float64        `gorm:"not null" json:"monto"`
	EstadoTransaccion string         `gorm:"not null;default:'pendiente';index" json:"estado_transaccion"`
	Reserva           Reserva        `gorm:"foreignKey:ReservaID" json:"-"`
}

// Entrada is the access credential bound to a reservation. The QR code
// payload is the reservation's own id; HashValidacion is an out-of-band
// HMAC kept for manual verification and not checked during scanning.
type Entrada struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	ReservaID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"reserva_id"`
	CodigoQR         string         `gorm:"not null;index" json:"codigo_qr"`
	HashValidacion   string         `json:"-"`
	EstadoValidacion string         `gorm:"not null;default:'pendiente'" json:"estado_validacion"`
	ValidadoAt       *time.Time     `json:"validado_at,omitempty"`
	ValidadoPor      *uuid.UUID     `gorm:"type:uuid" json:"validado_por,omitempty"`
	Reserva          Reserva        `gorm:"foreignKey:ReservaID" json:"-"`
}

// Notificacion is an append-only side-effect record; only the read flag
// mutates afterwards.
type Notificacion struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;index" json:"usuario_id"`
	Tipo      string    `gorm:"not null" json:"tipo"`
	Mensaje   string    `gorm:"not null" json:"mensaje"`
	Leida     bool      `gorm:"not null;default:false" json:"leida"`
}

// Auditoria is the append-only audit log
type Auditoria struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"actor_id"`
	Accion     string    `gorm:"not null" json:"accion"`
	Tabla      string    `gorm:"not null" json:"tabla"`
	RegistroID string    `gorm:"not null" json:"registro_id"`
	Detalle    string    `json:"detalle"`
}

// Reporte is a user report against a platform entity
type Reporte struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	ReportanteID uuid.UUID `gorm:"type:uuid;not null;index" json:"reportante_id"`
	Tabla        string    `gorm:"not null" json:"tabla"`
	RegistroID   string    `gorm:"not null" json:"registro_id"`
	Motivo       string    `gorm:"not null" json:"motivo"`
	Estado       string    `gorm:"not null;default:'pendiente';index" json:"estado"`
}

// SolicitudReembolso is a refund request created by attendee cancellation.
// It records intent only; no money moves through this system.
type SolicitudReembolso struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	ReservaID uuid.UUID `gorm:"type:uuid;not null;index" json:"reserva_id"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;index" json:"usuario_id"`
	Motivo    string    `json:"motivo"`
	Estado    string    `gorm:"not null;default:'solicitado'" json:"estado"`
}

// CredencialPasarela stores an organizer's gateway OAuth tokens. Both
// tokens are AES-256-CBC encrypted before they reach this table.
type CredencialPasarela struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	UsuarioID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"usuario_id"`
	AccessToken  string    `gorm:"not null" json:"-"`
	RefreshToken string    `json:"-"`
	ExpiraAt     *time.Time `json:"expira_at,omitempty"`
}

// EventoWebhook stores received gateway webhook notifications with
// deduplication metadata for idempotent processing.
type EventoWebhook struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	Proveedor   string     `gorm:"not null;index" json:"proveedor"`
	ExternoID   string     `gorm:"not null;index" json:"externo_id"`
	Tipo        string     `gorm:"not null" json:"tipo"`
	Payload     string     `gorm:"type:text" json:"payload"`
	FirmaValida bool       `gorm:"not null;default:false" json:"firma_valida"`
	ProcesadoAt *time.Time `json:"procesado_at,omitempty"`
	ErrorDetalle string    `gorm:"type:text" json:"error_detalle"`
}

// SetupModels runs auto-migration for all entities
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Usuario{},
		&Categoria{},
		&Evento{},
		&Servicio{},
		&Reserva{},
		&Pago{},
		&Entrada{},
		&Notificacion{},
		&Auditoria{},
		&Reporte{},
		&SolicitudReembolso{},
		&CredencialPasarela{},
		&EventoWebhook{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to auto-migrate models")
	}
	return nil
}
