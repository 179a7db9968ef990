package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/C-Ford17/eventos-app-sub001/internal/metrics"
	"github.com/C-Ford17/eventos-app-sub001/internal/models"
	"github.com/C-Ford17/eventos-app-sub001/internal/repositories"
)

func newValidationService(reservaRepo *MockReservaStore, entradaRepo *MockEntradaStore, auditRepo *MockAuditoriaStore) *ValidationService {
	return &ValidationService{
		reservaRepo: reservaRepo,
		entradaRepo: entradaRepo,
		auditRepo:   auditRepo,
		collector:   metrics.NewMetrics(),
		now:         time.Now,
	}
}

func TestValidarRejectsUnparsableCode(t *testing.T) {
	service := newValidationService(new(MockReservaStore), new(MockEntradaStore), new(MockAuditoriaStore))

	resultado, err := service.Validar(context.Background(), "not-a-uuid", uuid.New(), nil)

	require.NoError(t, err)
	require.Equal(t, ResultadoInvalido, resultado.Resultado)
	require.Equal(t, "codigo no reconocido", resultado.Mensaje)
}

func TestValidarRecordsScanTiming(t *testing.T) {
	collector := metrics.NewMetrics()
	service := &ValidationService{
		reservaRepo: new(MockReservaStore),
		entradaRepo: new(MockEntradaStore),
		auditRepo:   new(MockAuditoriaStore),
		collector:   collector,
		now:         time.Now,
	}

	_, err := service.Validar(context.Background(), "not-a-uuid", uuid.New(), nil)
	require.NoError(t, err)

	timers := collector.Snapshot()["timers"].(map[string]metrics.TimerSnapshot)
	require.Contains(t, timers, metrics.TiempoValidacion)
	require.Equal(t, int64(1), timers[metrics.TiempoValidacion].Count)
}

func TestValidarRejectsUnknownReservation(t *testing.T) {
	mockReservas := new(MockReservaStore)
	reservaID := uuid.New()
	mockReservas.On("GetByID", mock.Anything, reservaID).Return(nil, repositories.ErrNotFound)

	service := newValidationService(mockReservas, new(MockEntradaStore), new(MockAuditoriaStore))

	resultado, err := service.Validar(context.Background(), reservaID.String(), uuid.New(), nil)

	require.NoError(t, err)
	require.Equal(t, ResultadoInvalido, resultado.Resultado)
	mockReservas.AssertExpectations(t)
}

func TestValidarRejectsWrongEvent(t *testing.T) {
	mockReservas := new(MockReservaStore)
	reserva := &models.Reserva{
		ID:            uuid.New(),
		EventoID:      uuid.New(),
		EstadoReserva: models.ReservaConfirmada,
	}
	mockReservas.On("GetByID", mock.Anything, reserva.ID).Return(reserva, nil)

	service := newValidationService(mockReservas, new(MockEntradaStore), new(MockAuditoriaStore))

	otherEvent := uuid.New()
	resultado, err := service.Validar(context.Background(), reserva.ID.String(), otherEvent, nil)

	require.NoError(t, err)
	require.Equal(t, ResultadoInvalido, resultado.Resultado)
	require.Equal(t, "la entrada no corresponde a este evento", resultado.Mensaje)
}

func TestValidarRejectsUnconfirmedReservation(t *testing.T) {
	mockReservas := new(MockReservaStore)
	reserva := &models.Reserva{
		ID:            uuid.New(),
		EventoID:      uuid.New(),
		EstadoReserva: models.ReservaPendiente,
	}
	mockReservas.On("GetByID", mock.Anything, reserva.ID).Return(reserva, nil)

	service := newValidationService(mockReservas, new(MockEntradaStore), new(MockAuditoriaStore))

	resultado, err := service.Validar(context.Background(), reserva.ID.String(), reserva.EventoID, nil)

	require.NoError(t, err)
	require.Equal(t, ResultadoInvalido, resultado.Resultado)
	// The message names the actual status so staff can tell the attendee
	require.Contains(t, resultado.Mensaje, models.ReservaPendiente)
}

func TestValidarConsumesCredentialOnce(t *testing.T) {
	mockReservas := new(MockReservaStore)
	mockEntradas := new(MockEntradaStore)
	mockAudit := new(MockAuditoriaStore)

	reserva := &models.Reserva{
		ID:            uuid.New(),
		EventoID:      uuid.New(),
		EstadoReserva: models.ReservaConfirmada,
	}
	entrada := &models.Entrada{
		ID:               uuid.New(),
		ReservaID:        reserva.ID,
		CodigoQR:         reserva.ID.String(),
		EstadoValidacion: models.ValidacionPendiente,
	}
	staffID := uuid.New()

	mockReservas.On("GetByID", mock.Anything, reserva.ID).Return(reserva, nil)
	mockEntradas.On("GetByReserva", mock.Anything, reserva.ID).Return(entrada, nil)
	mockEntradas.On("MarkValidado", mock.Anything, entrada.ID, mock.AnythingOfType("time.Time"), &staffID).Return(nil)
	mockAudit.On("Create", mock.Anything, mock.AnythingOfType("*models.Auditoria")).Return(nil)

	service := newValidationService(mockReservas, mockEntradas, mockAudit)

	resultado, err := service.Validar(context.Background(), reserva.ID.String(), reserva.EventoID, &staffID)

	require.NoError(t, err)
	require.Equal(t, ResultadoValido, resultado.Resultado)
	require.NotNil(t, resultado.ValidadoAt)
	mockEntradas.AssertExpectations(t)
	mockAudit.AssertExpectations(t)
}

func TestValidarReportsDuplicateWithOriginalTimestamp(t *testing.T) {
	mockReservas := new(MockReservaStore)
	mockEntradas := new(MockEntradaStore)

	validadoAt := time.Now().Add(-10 * time.Minute)
	reserva := &models.Reserva{
		ID:            uuid.New(),
		EventoID:      uuid.New(),
		EstadoReserva: models.ReservaConfirmada,
	}
	entrada := &models.Entrada{
		ID:               uuid.New(),
		ReservaID:        reserva.ID,
		EstadoValidacion: models.ValidacionValidado,
		ValidadoAt:       &validadoAt,
	}

	mockReservas.On("GetByID", mock.Anything, reserva.ID).Return(reserva, nil)
	mockEntradas.On("GetByReserva", mock.Anything, reserva.ID).Return(entrada, nil)

	service := newValidationService(mockReservas, mockEntradas, new(MockAuditoriaStore))

	resultado, err := service.Validar(context.Background(), reserva.ID.String(), reserva.EventoID, nil)

	require.NoError(t, err)
	require.Equal(t, ResultadoDuplicado, resultado.Resultado)
	require.Equal(t, &validadoAt, resultado.ValidadoAt)
	// The credential must never be consumed twice
	mockEntradas.AssertNotCalled(t, "MarkValidado", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestValidarLosingRaceReportsDuplicate(t *testing.T) {
	mockReservas := new(MockReservaStore)
	mockEntradas := new(MockEntradaStore)

	validadoAt := time.Now()
	reserva := &models.Reserva{
		ID:            uuid.New(),
		EventoID:      uuid.New(),
		EstadoReserva: models.ReservaConfirmada,
	}
	pendiente := &models.Entrada{
		ID:               uuid.New(),
		ReservaID:        reserva.ID,
		EstadoValidacion: models.ValidacionPendiente,
	}
	consumida := &models.Entrada{
		ID:               pendiente.ID,
		ReservaID:        reserva.ID,
		EstadoValidacion: models.ValidacionValidado,
		ValidadoAt:       &validadoAt,
	}

	mockReservas.On("GetByID", mock.Anything, reserva.ID).Return(reserva, nil)
	// The first read sees pendiente, but the conditional update loses to a
	// concurrent scan; the re-read then returns the consumed credential.
	mockEntradas.On("GetByReserva", mock.Anything, reserva.ID).Return(pendiente, nil).Once()
	mockEntradas.On("MarkValidado", mock.Anything, pendiente.ID, mock.AnythingOfType("time.Time"),
		(*uuid.UUID)(nil)).Return(repositories.ErrNoTransition)
	mockEntradas.On("GetByReserva", mock.Anything, reserva.ID).Return(consumida, nil).Once()

	service := newValidationService(mockReservas, mockEntradas, new(MockAuditoriaStore))

	resultado, err := service.Validar(context.Background(), reserva.ID.String(), reserva.EventoID, nil)

	require.NoError(t, err)
	require.Equal(t, ResultadoDuplicado, resultado.Resultado)
	require.Equal(t, &validadoAt, resultado.ValidadoAt)
	mockEntradas.AssertExpectations(t)
}
