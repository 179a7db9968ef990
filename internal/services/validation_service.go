package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/C-Ford17/eventos-app-sub001/internal/metrics"
	"github.com/C-Ford17/eventos-app-sub001/internal/models"
	"github.com/C-Ford17/eventos-app-sub001/internal/repositories"
)

// Validation result taxonomy. The scanning client renders different UI for
// a bad code versus an already-consumed one.
const (
	ResultadoValido    = "valido"
	ResultadoInvalido  = "invalido"
	ResultadoDuplicado = "duplicado"
)

// ResultadoValidacion is the outcome of a QR scan
type ResultadoValidacion struct {
	Resultado  string     `json:"resultado"`
	Mensaje    string     `json:"mensaje"`
	ReservaID  *uuid.UUID `json:"reserva_id,omitempty"`
	ValidadoAt *time.Time `json:"validado_at,omitempty"`
}

// ValidationService consumes access credentials at event entry
type ValidationService struct {
	reservaRepo ReservaStore
	entradaRepo EntradaStore
	auditRepo   AuditoriaStore
	collector   *metrics.Metrics
	now         func() time.Time
}

// NewValidationService creates a new credential validation service
func NewValidationService(
	reservaRepo ReservaStore,
	entradaRepo EntradaStore,
	auditRepo AuditoriaStore,
	collector *metrics.Metrics,
) *ValidationService {
	return &ValidationService{
		reservaRepo: reservaRepo,
		entradaRepo: entradaRepo,
		auditRepo:   auditRepo,
		collector:   collector,
		now:         time.Now,
	}
}

// Validar consumes the credential identified by the scanned code for the
// given event. The consuming update is conditional on the prior pendiente
// state, so two concurrent scans of the same code cannot both succeed: the
// loser observes the transition and reports duplicado with the original
// timestamp. staffID, when present, is recorded in the audit log.
func (s *ValidationService) Validar(ctx context.Context, codigo string, eventoID uuid.UUID, staffID *uuid.UUID) (*ResultadoValidacion, error) {
	start := time.Now()
	defer func() {
		s.collector.RecordTiming(metrics.TiempoValidacion, time.Since(start))
	}()

	reservaID, err := uuid.Parse(codigo)
	if err != nil {
		s.collector.IncrementCounter(metrics.ValidacionesInvalido)
		return &ResultadoValidacion{
			Resultado: ResultadoInvalido,
			Mensaje:   "codigo no reconocido",
		}, nil
	}

	reserva, err := s.reservaRepo.GetByID(ctx, reservaID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.collector.IncrementCounter(metrics.ValidacionesInvalido)
			return &ResultadoValidacion{
				Resultado: ResultadoInvalido,
				Mensaje:   "reserva no encontrada",
			}, nil
		}
		return nil, err
	}

	if reserva.EventoID != eventoID {
		s.collector.IncrementCounter(metrics.ValidacionesInvalido)
		return &ResultadoValidacion{
			Resultado: ResultadoInvalido,
			Mensaje:   "la entrada no corresponde a este evento",
			ReservaID: &reserva.ID,
		}, nil
	}

	if reserva.EstadoReserva != models.ReservaConfirmada {
		s.collector.IncrementCounter(metrics.ValidacionesInvalido)
		return &ResultadoValidacion{
			Resultado: ResultadoInvalido,
			Mensaje:   fmt.Sprintf("la reserva no esta confirmada (estado: %s)", reserva.EstadoReserva),
			ReservaID: &reserva.ID,
		}, nil
	}

	entrada, err := s.entradaRepo.GetByReserva(ctx, reserva.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.collector.IncrementCounter(metrics.ValidacionesInvalido)
			return &ResultadoValidacion{
				Resultado: ResultadoInvalido,
				Mensaje:   "la reserva no tiene entrada emitida",
				ReservaID: &reserva.ID,
			}, nil
		}
		return nil, err
	}

	if entrada.EstadoValidacion == models.ValidacionValidado {
		s.collector.IncrementCounter(metrics.ValidacionesDuplicado)
		return &ResultadoValidacion{
			Resultado:  ResultadoDuplicado,
			Mensaje:    "entrada ya validada",
			ReservaID:  &reserva.ID,
			ValidadoAt: entrada.ValidadoAt,
		}, nil
	}

	validadoAt := s.now()
	if err := s.entradaRepo.MarkValidado(ctx, entrada.ID, validadoAt, staffID); err != nil {
		if errors.Is(err, repositories.ErrNoTransition) {
			// Lost the race against a concurrent scan: the credential is
			// already consumed. Report duplicado with the stored timestamp.
			consumida, lookupErr := s.entradaRepo.GetByReserva(ctx, reserva.ID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			s.collector.IncrementCounter(metrics.ValidacionesDuplicado)
			return &ResultadoValidacion{
				Resultado:  ResultadoDuplicado,
				Mensaje:    "entrada ya validada",
				ReservaID:  &reserva.ID,
				ValidadoAt: consumida.ValidadoAt,
			}, nil
		}
		return nil, errors.Wrap(err, "failed to consume credential")
	}

	if staffID != nil {
		auditEntry := &models.Auditoria{
			ID:         uuid.New(),
			ActorID:    *staffID,
			Accion:     "validar_entrada",
			Tabla:      "entradas",
			RegistroID: entrada.ID.String(),
			Detalle:    fmt.Sprintf("reserva %s validada para evento %s", reserva.ID, eventoID),
		}
		if err := s.auditRepo.Create(ctx, auditEntry); err != nil {
			log.Error().Err(err).Str("entrada_id", entrada.ID.String()).
				Msg("Failed to audit credential validation")
		}
	}

	s.collector.IncrementCounter(metrics.ValidacionesExitosas)

	log.Info().
		Str("reserva_id", reserva.ID.String()).
		Str("evento_id", eventoID.String()).
		Msg("Credential validated")

	return &ResultadoValidacion{
		Resultado:  ResultadoValido,
		Mensaje:    "entrada validada",
		ReservaID:  &reserva.ID,
		ValidadoAt: &validadoAt,
	}, nil
}
