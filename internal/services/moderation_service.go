package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/C-Ford17/eventos-app-sub001/internal/models"
	"github.com/C-Ford17/eventos-app-sub001/internal/repositories"
)

// BloqueableStore toggles the blocked flag on a moderated entity
type BloqueableStore interface {
	SetBloqueado(ctx context.Context, id uuid.UUID, bloqueado bool) error
}

// ReporteStore is the report persistence surface
type ReporteStore interface {
	Create(ctx context.Context, reporte *models.Reporte) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reporte, error)
	ListByEstado(ctx context.Context, estado string, limit int) ([]models.Reporte, error)
	SetEstadoIf(ctx context.Context, id uuid.UUID, from, to string) error
}

// Moderated entity tables
const (
	TablaUsuarios  = "usuarios"
	TablaEventos   = "eventos"
	TablaServicios = "servicios"
)

// OwnerLookup resolves the user to notify for a blocked entity
type OwnerLookup func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

// EventoReadSide keeps the cached and indexed views of an event consistent
// with its moderation state
type EventoReadSide interface {
	RemoverDeLectura(ctx context.Context, eventoID uuid.UUID)
	RestaurarLectura(ctx context.Context, eventoID uuid.UUID)
}

// ModerationService performs admin block/unblock actions and drives report
// review. Every action pairs a notification to the affected party with an
// audit-log entry naming the actor, action and target.
type ModerationService struct {
	usuarioRepo   BloqueableStore
	eventoRepo    BloqueableStore
	servicioRepo  BloqueableStore
	reporteRepo   ReporteStore
	auditRepo     AuditoriaStore
	notifier      Notifier
	eventoOwner   OwnerLookup
	servicioOwner OwnerLookup
	eventoLectura EventoReadSide
}

// NewModerationService creates a new moderation service
func NewModerationService(
	usuarioRepo BloqueableStore,
	eventoRepo BloqueableStore,
	servicioRepo BloqueableStore,
	reporteRepo ReporteStore,
	auditRepo AuditoriaStore,
	notifier Notifier,
	eventoOwner OwnerLookup,
	servicioOwner OwnerLookup,
	eventoLectura EventoReadSide,
) *ModerationService {
	return &ModerationService{
		usuarioRepo:   usuarioRepo,
		eventoRepo:    eventoRepo,
		servicioRepo:  servicioRepo,
		reporteRepo:   reporteRepo,
		auditRepo:     auditRepo,
		notifier:      notifier,
		eventoOwner:   eventoOwner,
		servicioOwner: servicioOwner,
		eventoLectura: eventoLectura,
	}
}

// SetBloqueo blocks or unblocks an entity of the given table
func (s *ModerationService) SetBloqueo(ctx context.Context, actorID uuid.UUID, tabla string, targetID uuid.UUID, bloquear bool, motivo string) error {
	var repo BloqueableStore
	var owner OwnerLookup

	switch tabla {
	case TablaUsuarios:
		repo = s.usuarioRepo
		owner = func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) { return id, nil }
	case TablaEventos:
		repo = s.eventoRepo
		owner = s.eventoOwner
	case TablaServicios:
		repo = s.servicioRepo
		owner = s.servicioOwner
	default:
		return errors.Wrapf(ErrEstadoInvalido, "unknown moderation target %q", tabla)
	}

	if err := repo.SetBloqueado(ctx, targetID, bloquear); err != nil {
		return err
	}

	// A blocked event must disappear from the cached detail and the search
	// index immediately, not after the cache TTL.
	if tabla == TablaEventos && s.eventoLectura != nil {
		if bloquear {
			s.eventoLectura.RemoverDeLectura(ctx, targetID)
		} else {
			s.eventoLectura.RestaurarLectura(ctx, targetID)
		}
	}

	accion := "bloquear"
	mensaje := fmt.Sprintf("Tu recurso (%s) fue bloqueado: %s", tabla, motivo)
	if !bloquear {
		accion = "desbloquear"
		mensaje = fmt.Sprintf("Tu recurso (%s) fue desbloqueado", tabla)
	}

	if afectadoID, err := owner(ctx, targetID); err == nil {
		s.notifier.Notify(ctx, afectadoID, "moderacion", mensaje)
	} else {
		log.Warn().Err(err).Str("tabla", tabla).Str("target", targetID.String()).
			Msg("Could not resolve affected user for moderation notification")
	}

	s.audit(ctx, actorID, accion, tabla, targetID.String(), motivo)
	return nil
}

// CrearReporte files a user report in pendiente
func (s *ModerationService) CrearReporte(ctx context.Context, reportanteID uuid.UUID, tabla, registroID, motivo string) (*models.Reporte, error) {
	if motivo == "" {
		return nil, errors.Wrap(ErrEstadoInvalido, "motivo is required")
	}
	reporte := &models.Reporte{
		ID:           uuid.New(),
		ReportanteID: reportanteID,
		Tabla:        tabla,
		RegistroID:   registroID,
		Motivo:       motivo,
		Estado:       models.ReportePendiente,
	}
	if err := s.reporteRepo.Create(ctx, reporte); err != nil {
		return nil, errors.Wrap(err, "failed to create report")
	}
	return reporte, nil
}

// reportTransitions is the fixed review progression
var reportTransitions = map[string]string{
	models.ReporteEnRevision: models.ReportePendiente,
	models.ReporteResuelto:   models.ReporteEnRevision,
	models.ReporteRechazado:  models.ReporteEnRevision,
}

// RevisarReporte advances a report along pendiente -> en_revision ->
// {resuelto | rechazado}, notifying the original reporter on each hop.
func (s *ModerationService) RevisarReporte(ctx context.Context, actorID, reporteID uuid.UUID, destino string) error {
	from, ok := reportTransitions[destino]
	if !ok {
		return errors.Wrapf(ErrTransicionInvalida, "unknown report state %q", destino)
	}

	reporte, err := s.reporteRepo.GetByID(ctx, reporteID)
	if err != nil {
		return err
	}

	if err := s.reporteRepo.SetEstadoIf(ctx, reporteID, from, destino); err != nil {
		if errors.Is(err, repositories.ErrNoTransition) {
			return errors.Wrapf(ErrTransicionInvalida, "report is %s, cannot move to %s", reporte.Estado, destino)
		}
		return err
	}

	s.notifier.Notify(ctx, reporte.ReportanteID, "reporte_actualizado",
		fmt.Sprintf("Tu reporte %s paso a estado %s", reporteID, destino))
	s.audit(ctx, actorID, "revisar_reporte", "reportes", reporteID.String(),
		fmt.Sprintf("%s -> %s", from, destino))
	return nil
}

// ListReportes lists reports awaiting the given review state
func (s *ModerationService) ListReportes(ctx context.Context, estado string, limit int) ([]models.Reporte, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.reporteRepo.ListByEstado(ctx, estado, limit)
}

func (s *ModerationService) audit(ctx context.Context, actorID uuid.UUID, accion, tabla, registroID, detalle string) {
	entrada := &models.Auditoria{
		ID:         uuid.New(),
		ActorID:    actorID,
		Accion:     accion,
		Tabla:      tabla,
		RegistroID: registroID,
		Detalle:    detalle,
	}
	if err := s.auditRepo.Create(ctx, entrada); err != nil {
		log.Error().Err(err).Str("accion", accion).Msg("Failed to write audit entry")
	}
}
