package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/C-Ford17/eventos-app-sub001/internal/gateway"
	"github.com/C-Ford17/eventos-app-sub001/internal/metrics"
	"github.com/C-Ford17/eventos-app-sub001/internal/models"
	"github.com/C-Ford17/eventos-app-sub001/internal/repositories"
)

type reservationMocks struct {
	reservas  *MockReservaStore
	pagos     *MockPagoStore
	entradas  *MockEntradaStore
	eventos   *MockEventoStore
	usuarios  *MockUsuarioStore
	reembolso *MockReembolsoStore
	audit     *MockAuditoriaStore
	gw        *MockPaymentGateway
	notifier  *MockNotifier
}

func newReservationService(m *reservationMocks) *ReservationService {
	return &ReservationService{
		reservaRepo:   m.reservas,
		pagoRepo:      m.pagos,
		entradaRepo:   m.entradas,
		eventoRepo:    m.eventos,
		usuarioRepo:   m.usuarios,
		reembolsoRepo: m.reembolso,
		auditRepo:     m.audit,
		gw:            m.gw,
		notifier:      m.notifier,
		collector:     metrics.NewMetrics(),
		backURLBase:   "https://eventos.test",
		qrSecret:      "test-credential-key",
		pendingTTL:    5 * time.Minute,
		sweepLimit:    100,
		now:           time.Now,
	}
}

func newReservationMocks() *reservationMocks {
	return &reservationMocks{
		reservas:  new(MockReservaStore),
		pagos:     new(MockPagoStore),
		entradas:  new(MockEntradaStore),
		eventos:   new(MockEventoStore),
		usuarios:  new(MockUsuarioStore),
		reembolso: new(MockReembolsoStore),
		audit:     new(MockAuditoriaStore),
		gw:        new(MockPaymentGateway),
		notifier:  new(MockNotifier),
	}
}

func TestCrearReservaIssuesCredentialAndCheckout(t *testing.T) {
	m := newReservationMocks()
	service := newReservationService(m)

	usuarioID := uuid.New()
	evento := &models.Evento{
		ID:            uuid.New(),
		Nombre:        "Concierto",
		Estado:        models.EventoPublicado,
		Capacidad:     100,
		PrecioEntrada: 2500,
	}

	m.eventos.On("GetByID", mock.Anything, evento.ID).Return(evento, nil)
	m.eventos.On("CountEntradasComprometidas", mock.Anything, evento.ID).Return(int64(10), nil)
	m.usuarios.On("GetByID", mock.Anything, usuarioID).Return(&models.Usuario{ID: usuarioID, Email: "ana@example.com"}, nil)
	m.reservas.On("Create", mock.Anything, mock.AnythingOfType("*models.Reserva")).Return(nil)
	m.pagos.On("Create", mock.Anything, mock.AnythingOfType("*models.Pago")).Return(nil)
	m.entradas.On("Create", mock.Anything, mock.AnythingOfType("*models.Entrada")).Return(nil)
	m.gw.On("CreatePreference", mock.Anything, mock.AnythingOfType("*gateway.PreferenceRequest")).
		Return(&gateway.Preference{ID: "pref-1", InitPoint: "https://gateway.test/checkout/pref-1"}, nil)
	m.pagos.On("SetReferenciaExterna", mock.Anything, mock.AnythingOfType("uuid.UUID"), "pref-1").Return(nil)

	result, err := service.CrearReserva(context.Background(), usuarioID, evento.ID, 2)

	require.NoError(t, err)
	require.Equal(t, models.ReservaPendiente, result.Reserva.EstadoReserva)
	require.Equal(t, float64(5000), result.Reserva.PrecioTotal)
	require.Equal(t, "https://gateway.test/checkout/pref-1", result.InitPoint)

	// The credential code is the reservation's own id
	entradaArg := m.entradas.Calls[0].Arguments.Get(1).(*models.Entrada)
	require.Equal(t, result.Reserva.ID.String(), entradaArg.CodigoQR)
	require.NotEmpty(t, entradaArg.HashValidacion)

	m.reservas.AssertExpectations(t)
	m.gw.AssertExpectations(t)
}

func TestCrearReservaRejectsWhenCapacityExhausted(t *testing.T) {
	m := newReservationMocks()
	service := newReservationService(m)

	evento := &models.Evento{
		ID:        uuid.New(),
		Estado:    models.EventoPublicado,
		Capacidad: 50,
	}
	m.eventos.On("GetByID", mock.Anything, evento.ID).Return(evento, nil)
	m.eventos.On("CountEntradasComprometidas", mock.Anything, evento.ID).Return(int64(49), nil)

	_, err := service.CrearReserva(context.Background(), uuid.New(), evento.ID, 2)

	require.ErrorIs(t, err, ErrCapacidadAgotada)
	m.reservas.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCrearReservaRejectsUnpublishedEvent(t *testing.T) {
	m := newReservationMocks()
	service := newReservationService(m)

	evento := &models.Evento{ID: uuid.New(), Estado: models.EventoBorrador, Capacidad: 10}
	m.eventos.On("GetByID", mock.Anything, evento.ID).Return(evento, nil)

	_, err := service.CrearReserva(context.Background(), uuid.New(), evento.ID, 1)

	require.ErrorIs(t, err, ErrEventoNoDisponible)
}

func TestReconcileApprovedConfirmsReservationAndAllPayments(t *testing.T) {
	m := newReservationMocks()
	service := newReservationService(m)

	reserva := &models.Reserva{ID: uuid.New(), UsuarioID: uuid.New()}

	m.gw.On("GetPayment", mock.Anything, "12345").Return(&gateway.Payment{
		Status:            gateway.StatusApproved,
		ExternalReference: reserva.ID.String(),
	}, nil)
	m.reservas.On("GetByID", mock.Anything, reserva.ID).Return(reserva, nil)
	m.reservas.On("SetEstado", mock.Anything, reserva.ID, models.ReservaConfirmada).Return(nil)
	m.pagos.On("SetEstadoByReserva", mock.Anything, reserva.ID, models.PagoAprobado).Return(nil)
	m.notifier.On("Notify", mock.Anything, reserva.UsuarioID, "reserva_confirmada", mock.AnythingOfType("string")).Return()

	err := service.ReconcileFromWebhook(context.Background(), "12345")

	require.NoError(t, err)
	m.reservas.AssertExpectations(t)
	m.pagos.AssertExpectations(t)
	m.notifier.AssertExpectations(t)
}

func TestReconcileNonApprovedKeepsReservationPending(t *testing.T) {
	m := newReservationMocks()
	service := newReservationService(m)

	reserva := &models.Reserva{ID: uuid.New(), UsuarioID: uuid.New()}

	m.gw.On("GetPayment", mock.Anything, "777").Return(&gateway.Payment{
		Status:            "in_process",
		ExternalReference: reserva.ID.String(),
	}, nil)
	m.reservas.On("GetByID", mock.Anything, reserva.ID).Return(reserva, nil)
	m.reservas.On("SetEstado", mock.Anything, reserva.ID, models.ReservaPendiente).Return(nil)
	m.pagos.On("SetEstadoByReserva", mock.Anything, reserva.ID, models.PagoPendiente).Return(nil)

	err := service.ReconcileFromWebhook(context.Background(), "777")

	require.NoError(t, err)
	m.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileRejectsNonReservationReference(t *testing.T) {
	m := newReservationMocks()
	service := newReservationService(m)

	m.gw.On("GetPayment", mock.Anything, "888").Return(&gateway.Payment{
		Status:            gateway.StatusApproved,
		ExternalReference: "order-123",
	}, nil)

	err := service.ReconcileFromWebhook(context.Background(), "888")

	require.Error(t, err)
	m.reservas.AssertNotCalled(t, "SetEstado", mock.Anything, mock.Anything, mock.Anything)
}

func TestExpireStaleRejectsOldPendingReservations(t *testing.T) {
	m := newReservationMocks()
	service := newReservationService(m)

	vieja := models.Reserva{ID: uuid.New(), EstadoReserva: models.ReservaPendiente}

	m.reservas.On("GetStalePendientes", mock.Anything, mock.AnythingOfType("time.Time"), 100).
		Return([]models.Reserva{vieja}, nil)
	m.reservas.On("SetEstadoIf", mock.Anything, vieja.ID, models.ReservaPendiente, models.ReservaRechazada).Return(nil)
	m.pagos.On("SetEstadoByReserva", mock.Anything, vieja.ID, models.PagoRechazado).Return(nil)

	err := service.ExpireStale(context.Background())

	require.NoError(t, err)
	m.reservas.AssertExpectations(t)
	m.pagos.AssertExpectations(t)

	// The cutoff handed to the store is the pending TTL before now
	cutoff := m.reservas.Calls[0].Arguments.Get(1).(time.Time)
	require.WithinDuration(t, time.Now().Add(-5*time.Minute), cutoff, 2*time.Second)
}

func TestExpireStaleToleratesConcurrentTransition(t *testing.T) {
	m := newReservationMocks()
	service := newReservationService(m)

	primera := models.Reserva{ID: uuid.New(), EstadoReserva: models.ReservaPendiente}
	segunda := models.Reserva{ID: uuid.New(), EstadoReserva: models.ReservaPendiente}

	m.reservas.On("GetStalePendientes", mock.Anything, mock.AnythingOfType("time.Time"), 100).
		Return([]models.Reserva{primera, segunda}, nil)
	// A webhook confirmed the first reservation between listing and update;
	// the sweep must skip it and still process the second.
	m.reservas.On("SetEstadoIf", mock.Anything, primera.ID, models.ReservaPendiente, models.ReservaRechazada).
		Return(repositories.ErrNoTransition)
	m.reservas.On("SetEstadoIf", mock.Anything, segunda.ID, models.ReservaPendiente, models.ReservaRechazada).
		Return(nil)
	m.pagos.On("SetEstadoByReserva", mock.Anything, segunda.ID, models.PagoRechazado).Return(nil)

	err := service.ExpireStale(context.Background())

	require.NoError(t, err)
	m.pagos.AssertNotCalled(t, "SetEstadoByReserva", mock.Anything, primera.ID, mock.Anything)
	m.pagos.AssertCalled(t, "SetEstadoByReserva", mock.Anything, segunda.ID, models.PagoRechazado)
}

func TestCancelarRequiresOwnership(t *testing.T) {
	m := newReservationMocks()
	service := newReservationService(m)

	reserva := &models.Reserva{
		ID:            uuid.New(),
		UsuarioID:     uuid.New(),
		EstadoReserva: models.ReservaConfirmada,
	}
	m.reservas.On("GetByID", mock.Anything, reserva.ID).Return(reserva, nil)

	_, err := service.Cancelar(context.Background(), uuid.New(), reserva.ID, "no puedo ir")

	require.ErrorIs(t, err, ErrNoAutorizado)
	m.reservas.AssertNotCalled(t, "SetEstadoIf", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelarCreatesRefundRequest(t *testing.T) {
	m := newReservationMocks()
	service := newReservationService(m)

	usuarioID := uuid.New()
	reserva := &models.Reserva{
		ID:            uuid.New(),
		UsuarioID:     usuarioID,
		EstadoReserva: models.ReservaConfirmada,
	}
	m.reservas.On("GetByID", mock.Anything, reserva.ID).Return(reserva, nil)
	m.reservas.On("SetEstadoIf", mock.Anything, reserva.ID, models.ReservaConfirmada, models.ReservaCancelada).Return(nil)
	m.reembolso.On("Create", mock.Anything, mock.AnythingOfType("*models.SolicitudReembolso")).Return(nil)
	m.notifier.On("Notify", mock.Anything, usuarioID, "reembolso_solicitado", mock.AnythingOfType("string")).Return()

	solicitud, err := service.Cancelar(context.Background(), usuarioID, reserva.ID, "no puedo ir")

	require.NoError(t, err)
	require.Equal(t, models.ReembolsoSolicitado, solicitud.Estado)
	require.Equal(t, "no puedo ir", solicitud.Motivo)
	m.reembolso.AssertExpectations(t)
}

func TestCancelarRejectsPendingReservation(t *testing.T) {
	m := newReservationMocks()
	service := newReservationService(m)

	usuarioID := uuid.New()
	reserva := &models.Reserva{
		ID:            uuid.New(),
		UsuarioID:     usuarioID,
		EstadoReserva: models.ReservaPendiente,
	}
	m.reservas.On("GetByID", mock.Anything, reserva.ID).Return(reserva, nil)

	_, err := service.Cancelar(context.Background(), usuarioID, reserva.ID, "")

	require.ErrorIs(t, err, ErrEstadoInvalido)
}
