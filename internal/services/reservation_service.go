package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/C-Ford17/eventos-app-sub001/config"
	"github.com/C-Ford17/eventos-app-sub001/internal/gateway"
	"github.com/C-Ford17/eventos-app-sub001/internal/metrics"
	"github.com/C-Ford17/eventos-app-sub001/internal/models"
	"github.com/C-Ford17/eventos-app-sub001/internal/qr"
	"github.com/C-Ford17/eventos-app-sub001/internal/repositories"
)

// ReservaStore is the reservation persistence surface used by the service
type ReservaStore interface {
	Create(ctx context.Context, reserva *models.Reserva) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reserva, error)
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]models.Reserva, error)
	SetEstado(ctx context.Context, id uuid.UUID, estado string) error
	SetEstadoIf(ctx context.Context, id uuid.UUID, from, to string) error
	GetStalePendientes(ctx context.Context, cutoff time.Time, limit int) ([]models.Reserva, error)
}

// PagoStore is the payment persistence surface used by the service
type PagoStore interface {
	Create(ctx context.Context, pago *models.Pago) error
	SetEstadoByReserva(ctx context.Context, reservaID uuid.UUID, estado string) error
	SetReferenciaExterna(ctx context.Context, id uuid.UUID, ref string) error
}

// EntradaStore is the credential persistence surface used by the service
type EntradaStore interface {
	Create(ctx context.Context, entrada *models.Entrada) error
	GetByReserva(ctx context.Context, reservaID uuid.UUID) (*models.Entrada, error)
	MarkValidado(ctx context.Context, id uuid.UUID, at time.Time, staffID *uuid.UUID) error
}

// EventoStore is the event persistence surface used by the service
type EventoStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Evento, error)
	CountEntradasComprometidas(ctx context.Context, eventoID uuid.UUID) (int64, error)
}

// UsuarioStore is the user persistence surface used by the service
type UsuarioStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Usuario, error)
}

// ReembolsoStore is the refund request persistence surface
type ReembolsoStore interface {
	Create(ctx context.Context, solicitud *models.SolicitudReembolso) error
}

// AuditoriaStore is the audit log persistence surface
type AuditoriaStore interface {
	Create(ctx context.Context, entrada *models.Auditoria) error
}

// PaymentGateway is the outbound gateway surface used by the service
type PaymentGateway interface {
	CreatePreference(ctx context.Context, req *gateway.PreferenceRequest) (*gateway.Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*gateway.Payment, error)
}

// ReservationService moves reservations through their lifecycle and keeps
// payment and credential records consistent with them.
type ReservationService struct {
	reservaRepo   ReservaStore
	pagoRepo      PagoStore
	entradaRepo   EntradaStore
	eventoRepo    EventoStore
	usuarioRepo   UsuarioStore
	reembolsoRepo ReembolsoStore
	auditRepo     AuditoriaStore
	gw            PaymentGateway
	notifier      Notifier
	collector     *metrics.Metrics
	backURLBase   string
	qrSecret      string
	pendingTTL    time.Duration
	sweepLimit    int
	now           func() time.Time
}

// NewReservationService creates a new reservation lifecycle service
func NewReservationService(
	reservaRepo ReservaStore,
	pagoRepo PagoStore,
	entradaRepo EntradaStore,
	eventoRepo EventoStore,
	usuarioRepo UsuarioStore,
	reembolsoRepo ReembolsoStore,
	auditRepo AuditoriaStore,
	gw PaymentGateway,
	notifier Notifier,
	collector *metrics.Metrics,
	cfg config.Config,
) *ReservationService {
	return &ReservationService{
		reservaRepo:   reservaRepo,
		pagoRepo:      pagoRepo,
		entradaRepo:   entradaRepo,
		eventoRepo:    eventoRepo,
		usuarioRepo:   usuarioRepo,
		reembolsoRepo: reembolsoRepo,
		auditRepo:     auditRepo,
		gw:            gw,
		notifier:      notifier,
		collector:     collector,
		backURLBase:   cfg.MercadoPago.BackURLBase,
		qrSecret:      cfg.Auth.CredentialKey,
		pendingTTL:    cfg.Reservations.PendingTTL,
		sweepLimit:    cfg.Reservations.SweepLimit,
		now:           time.Now,
	}
}

// CheckoutResult is returned from reservation creation
type CheckoutResult struct {
	Reserva   *models.Reserva
	InitPoint string
}

// CrearReserva creates a reservation in pendiente, issues its access
// credential and builds a gateway checkout preference. A gateway failure
// after the local writes is reported as-is: the records stay pendiente and
// the stale sweep reclaims them.
func (s *ReservationService) CrearReserva(ctx context.Context, usuarioID, eventoID uuid.UUID, cantidad int) (*CheckoutResult, error) {
	if cantidad <= 0 {
		return nil, errors.Wrap(ErrEstadoInvalido, "cantidad must be positive")
	}

	evento, err := s.eventoRepo.GetByID(ctx, eventoID)
	if err != nil {
		return nil, err
	}
	if evento.Estado != models.EventoPublicado || evento.Bloqueado {
		return nil, ErrEventoNoDisponible
	}

	comprometidas, err := s.eventoRepo.CountEntradasComprometidas(ctx, eventoID)
	if err != nil {
		return nil, err
	}
	if comprometidas+int64(cantidad) > int64(evento.Capacidad) {
		return nil, ErrCapacidadAgotada
	}

	usuario, err := s.usuarioRepo.GetByID(ctx, usuarioID)
	if err != nil {
		return nil, err
	}

	reserva := &models.Reserva{
		ID:            uuid.New(),
		EventoID:      eventoID,
		UsuarioID:     usuarioID,
		Cantidad:      cantidad,
		PrecioTotal:   float64(cantidad) * evento.PrecioEntrada,
		EstadoReserva: models.ReservaPendiente,
	}
	if err := s.reservaRepo.Create(ctx, reserva); err != nil {
		return nil, errors.Wrap(err, "failed to create reservation")
	}

	pago := &models.Pago{
		ID:                uuid.New(),
		ReservaID:         reserva.ID,
		Monto:             reserva.PrecioTotal,
		EstadoTransaccion: models.PagoPendiente,
	}
	if err := s.pagoRepo.Create(ctx, pago); err != nil {
		return nil, errors.Wrap(err, "failed to create payment record")
	}

	// The credential code is the reservation's own id, no separate encoding.
	entrada := &models.Entrada{
		ID:               uuid.New(),
		ReservaID:        reserva.ID,
		CodigoQR:         reserva.ID.String(),
		HashValidacion:   qr.ValidationHash(reserva.ID.String(), usuarioID.String(), s.qrSecret),
		EstadoValidacion: models.ValidacionPendiente,
	}
	if err := s.entradaRepo.Create(ctx, entrada); err != nil {
		return nil, errors.Wrap(err, "failed to create access credential")
	}

	preference, err := s.gw.CreatePreference(ctx, &gateway.PreferenceRequest{
		Items: []gateway.PreferenceItem{{
			Title:      evento.Nombre,
			Quantity:   cantidad,
			UnitPrice:  evento.PrecioEntrada,
			CurrencyID: "ARS",
		}},
		ExternalReference: reserva.ID.String(),
		Payer:             gateway.PreferencePayer{Email: usuario.Email},
		BackURLs: gateway.PreferenceURLs{
			Success: fmt.Sprintf("%s/reservas/%s/exito", s.backURLBase, reserva.ID),
			Failure: fmt.Sprintf("%s/reservas/%s/error", s.backURLBase, reserva.ID),
			Pending: fmt.Sprintf("%s/reservas/%s/pendiente", s.backURLBase, reserva.ID),
		},
		AutoReturn: "approved",
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create checkout preference")
	}

	if err := s.pagoRepo.SetReferenciaExterna(ctx, pago.ID, preference.ID); err != nil {
		log.Warn().Err(err).Str("reserva_id", reserva.ID.String()).
			Msg("Failed to record preference reference on payment")
	}

	s.collector.IncrementCounter(metrics.ReservasCreadas)

	log.Info().
		Str("reserva_id", reserva.ID.String()).
		Str("evento_id", eventoID.String()).
		Int("cantidad", cantidad).
		Msg("Reservation created")

	return &CheckoutResult{Reserva: reserva, InitPoint: preference.InitPoint}, nil
}

// ReconcileFromWebhook applies the authoritative gateway status for the
// payment identified by dataID. The notification body is never trusted:
// status always comes from a direct gateway fetch.
func (s *ReservationService) ReconcileFromWebhook(ctx context.Context, dataID string) error {
	payment, err := s.gw.GetPayment(ctx, dataID)
	if err != nil {
		return errors.Wrap(err, "failed to fetch authoritative payment status")
	}

	reservaID, err := uuid.Parse(payment.ExternalReference)
	if err != nil {
		return errors.Wrapf(err, "gateway external reference %q is not a reservation id", payment.ExternalReference)
	}

	if _, err := s.reservaRepo.GetByID(ctx, reservaID); err != nil {
		return errors.Wrap(err, "webhook references unknown reservation")
	}

	return s.applyPaymentStatus(ctx, reservaID, payment.Status)
}

// applyPaymentStatus maps a gateway payment status onto the reservation and
// every one of its payment rows. Re-applying the same final state is
// harmless, which is what makes webhook redelivery safe.
func (s *ReservationService) applyPaymentStatus(ctx context.Context, reservaID uuid.UUID, status string) error {
	estadoReserva := models.ReservaPendiente
	estadoPago := models.PagoPendiente
	if status == gateway.StatusApproved {
		estadoReserva = models.ReservaConfirmada
		estadoPago = models.PagoAprobado
	}

	if err := s.reservaRepo.SetEstado(ctx, reservaID, estadoReserva); err != nil {
		return errors.Wrap(err, "failed to apply reservation state")
	}
	if err := s.pagoRepo.SetEstadoByReserva(ctx, reservaID, estadoPago); err != nil {
		return errors.Wrap(err, "failed to apply payment state")
	}

	log.Info().
		Str("reserva_id", reservaID.String()).
		Str("gateway_status", status).
		Str("estado_reserva", estadoReserva).
		Msg("Payment status reconciled")

	if estadoReserva == models.ReservaConfirmada {
		if reserva, err := s.reservaRepo.GetByID(ctx, reservaID); err == nil {
			s.notifier.Notify(ctx, reserva.UsuarioID, "reserva_confirmada",
				fmt.Sprintf("Tu reserva %s fue confirmada", reservaID))
		}
	}
	return nil
}

// ExpireStale rejects pending reservations older than the configured
// threshold, cascading the state to their payments. Each reservation is
// handled independently: one failure never aborts the sweep.
func (s *ReservationService) ExpireStale(ctx context.Context) error {
	start := time.Now()
	defer func() {
		s.collector.RecordTiming(metrics.TiempoSweep, time.Since(start))
	}()

	cutoff := s.now().Add(-s.pendingTTL)

	stale, err := s.reservaRepo.GetStalePendientes(ctx, cutoff, s.sweepLimit)
	if err != nil {
		return errors.Wrap(err, "failed to list stale pending reservations")
	}

	if len(stale) == 0 {
		return nil
	}

	log.Info().Int("count", len(stale)).Msg("Expiring stale pending reservations")

	for _, reserva := range stale {
		err := s.reservaRepo.SetEstadoIf(ctx, reserva.ID, models.ReservaPendiente, models.ReservaRechazada)
		if err != nil {
			if errors.Is(err, repositories.ErrNoTransition) {
				// Another sweep or a webhook moved it first; nothing to do.
				continue
			}
			log.Error().Err(err).Str("reserva_id", reserva.ID.String()).
				Msg("Failed to expire stale reservation")
			continue
		}

		if err := s.pagoRepo.SetEstadoByReserva(ctx, reserva.ID, models.PagoRechazado); err != nil {
			log.Error().Err(err).Str("reserva_id", reserva.ID.String()).
				Msg("Failed to reject payments of expired reservation")
			continue
		}

		s.collector.IncrementCounter(metrics.ReservasExpiradas)
		log.Info().Str("reserva_id", reserva.ID.String()).Msg("Stale reservation rejected")
	}

	return nil
}

// ConfirmarManual applies the confirmed state out-of-band, mirroring the
// webhook path, and audits the actor.
func (s *ReservationService) ConfirmarManual(ctx context.Context, actorID, reservaID uuid.UUID) error {
	return s.manualTransition(ctx, actorID, reservaID, gateway.StatusApproved, "confirmar_reserva_manual")
}

// RechazarManual rejects a reservation and its payments out-of-band.
func (s *ReservationService) RechazarManual(ctx context.Context, actorID, reservaID uuid.UUID) error {
	if _, err := s.reservaRepo.GetByID(ctx, reservaID); err != nil {
		return err
	}
	if err := s.reservaRepo.SetEstado(ctx, reservaID, models.ReservaRechazada); err != nil {
		return errors.Wrap(err, "failed to reject reservation")
	}
	if err := s.pagoRepo.SetEstadoByReserva(ctx, reservaID, models.PagoRechazado); err != nil {
		return errors.Wrap(err, "failed to reject payments")
	}
	s.audit(ctx, actorID, "rechazar_reserva_manual", "reservas", reservaID.String(), "")
	return nil
}

func (s *ReservationService) manualTransition(ctx context.Context, actorID, reservaID uuid.UUID, status, accion string) error {
	if _, err := s.reservaRepo.GetByID(ctx, reservaID); err != nil {
		return err
	}
	if err := s.applyPaymentStatus(ctx, reservaID, status); err != nil {
		return err
	}
	s.audit(ctx, actorID, accion, "reservas", reservaID.String(), "")
	return nil
}

// Cancelar lets the attendee cancel a confirmed reservation. It records a
// refund request in solicitado; no money moves here.
func (s *ReservationService) Cancelar(ctx context.Context, usuarioID, reservaID uuid.UUID, motivo string) (*models.SolicitudReembolso, error) {
	reserva, err := s.reservaRepo.GetByID(ctx, reservaID)
	if err != nil {
		return nil, err
	}
	if reserva.UsuarioID != usuarioID {
		return nil, ErrNoAutorizado
	}
	if reserva.EstadoReserva != models.ReservaConfirmada {
		return nil, errors.Wrapf(ErrEstadoInvalido, "reservation is %s", reserva.EstadoReserva)
	}

	if err := s.reservaRepo.SetEstadoIf(ctx, reservaID, models.ReservaConfirmada, models.ReservaCancelada); err != nil {
		if errors.Is(err, repositories.ErrNoTransition) {
			return nil, errors.Wrap(ErrEstadoInvalido, "reservation state changed concurrently")
		}
		return nil, errors.Wrap(err, "failed to cancel reservation")
	}

	solicitud := &models.SolicitudReembolso{
		ID:        uuid.New(),
		ReservaID: reservaID,
		UsuarioID: usuarioID,
		Motivo:    motivo,
		Estado:    models.ReembolsoSolicitado,
	}
	if err := s.reembolsoRepo.Create(ctx, solicitud); err != nil {
		return nil, errors.Wrap(err, "failed to create refund request")
	}

	s.notifier.Notify(ctx, usuarioID, "reembolso_solicitado",
		fmt.Sprintf("Registramos tu solicitud de reembolso para la reserva %s", reservaID))

	log.Info().Str("reserva_id", reservaID.String()).Msg("Reservation cancelled, refund requested")
	return solicitud, nil
}

// GetReserva returns a reservation visible to the given actor
func (s *ReservationService) GetReserva(ctx context.Context, actorID uuid.UUID, actorRol string, reservaID uuid.UUID) (*models.Reserva, error) {
	reserva, err := s.reservaRepo.GetByID(ctx, reservaID)
	if err != nil {
		return nil, err
	}
	if reserva.UsuarioID != actorID && actorRol != models.RolAdmin && actorRol != models.RolStaff {
		return nil, ErrNoAutorizado
	}
	return reserva, nil
}

// ListReservas lists the actor's own reservations
func (s *ReservationService) ListReservas(ctx context.Context, usuarioID uuid.UUID) ([]models.Reserva, error) {
	return s.reservaRepo.ListByUsuario(ctx, usuarioID)
}

// RenderCredencialQR renders the PNG QR for a reservation's credential,
// restricted to the reservation owner.
func (s *ReservationService) RenderCredencialQR(ctx context.Context, actorID, reservaID uuid.UUID, size int) ([]byte, error) {
	reserva, err := s.reservaRepo.GetByID(ctx, reservaID)
	if err != nil {
		return nil, err
	}
	if reserva.UsuarioID != actorID {
		return nil, ErrNoAutorizado
	}
	entrada, err := s.entradaRepo.GetByReserva(ctx, reservaID)
	if err != nil {
		return nil, err
	}
	return qr.Render(entrada.CodigoQR, size)
}

func (s *ReservationService) audit(ctx context.Context, actorID uuid.UUID, accion, tabla, registroID, detalle string) {
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
