package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/C-Ford17/eventos-app-sub001/internal/gateway"
	"github.com/C-Ford17/eventos-app-sub001/internal/models"
)

// Mock stores for testing

type MockReservaStore struct {
	mock.Mock
}

func (m *MockReservaStore) Create(ctx context.Context, reserva *models.Reserva) error {
	args := m.Called(ctx, reserva)
	return args.Error(0)
}

func (m *MockReservaStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Reserva, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reserva), args.Error(1)
}

func (m *MockReservaStore) ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]models.Reserva, error) {
	args := m.Called(ctx, usuarioID)
	return args.Get(0).([]models.Reserva), args.Error(1)
}

func (m *MockReservaStore) SetEstado(ctx context.Context, id uuid.UUID, estado string) error {
	args := m.Called(ctx, id, estado)
	return args.Error(0)
}

func (m *MockReservaStore) SetEstadoIf(ctx context.Context, id uuid.UUID, from, to string) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockReservaStore) GetStalePendientes(ctx context.Context, cutoff time.Time, limit int) ([]models.Reserva, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).([]models.Reserva), args.Error(1)
}

type MockPagoStore struct {
	mock.Mock
}

func (m *MockPagoStore) Create(ctx context.Context, pago *models.Pago) error {
	args := m.Called(ctx, pago)
	return args.Error(0)
}

func (m *MockPagoStore) SetEstadoByReserva(ctx context.Context, reservaID uuid.UUID, estado string) error {
	args := m.Called(ctx, reservaID, estado)
	return args.Error(0)
}

func (m *MockPagoStore) SetReferenciaExterna(ctx context.Context, id uuid.UUID, ref string) error {
	args := m.Called(ctx, id, ref)
	return args.Error(0)
}

type MockEntradaStore struct {
	mock.Mock
}

func (m *MockEntradaStore) Create(ctx context.Context, entrada *models.Entrada) error {
	args := m.Called(ctx, entrada)
	return args.Error(0)
}

func (m *MockEntradaStore) GetByReserva(ctx context.Context, reservaID uuid.UUID) (*models.Entrada, error) {
	args := m.Called(ctx, reservaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Entrada), args.Error(1)
}

func (m *MockEntradaStore) MarkValidado(ctx context.Context, id uuid.UUID, at time.Time, staffID *uuid.UUID) error {
	args := m.Called(ctx, id, at, staffID)
	return args.Error(0)
}

type MockEventoStore struct {
	mock.Mock
}

func (m *MockEventoStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Evento, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Evento), args.Error(1)
}

func (m *MockEventoStore) CountEntradasComprometidas(ctx context.Context, eventoID uuid.UUID) (int64, error) {
	args := m.Called(ctx, eventoID)
	return args.Get(0).(int64), args.Error(1)
}

type MockUsuarioStore struct {
	mock.Mock
}

func (m *MockUsuarioStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Usuario, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Usuario), args.Error(1)
}

type MockReembolsoStore struct {
	mock.Mock
}

func (m *MockReembolsoStore) Create(ctx context.Context, solicitud *models.SolicitudReembolso) error {
	args := m.Called(ctx, solicitud)
	return args.Error(0)
}

type MockAuditoriaStore struct {
	mock.Mock
}

func (m *MockAuditoriaStore) Create(ctx context.Context, entrada *models.Auditoria) error {
	args := m.Called(ctx, entrada)
	return args.Error(0)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreatePreference(ctx context.Context, req *gateway.PreferenceRequest) (*gateway.Preference, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Preference), args.Error(1)
}

func (m *MockPaymentGateway) GetPayment(ctx context.Context, paymentID string) (*gateway.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Payment), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, usuarioID uuid.UUID, tipo, mensaje string) {
	m.Called(ctx, usuarioID, tipo, mensaje)
}

type MockBloqueableStore struct {
	mock.Mock
}

func (m *MockBloqueableStore) SetBloqueado(ctx context.Context, id uuid.UUID, bloqueado bool) error {
	args := m.Called(ctx, id, bloqueado)
	return args.Error(0)
}

type MockEventoReadSide struct {
	mock.Mock
}

func (m *MockEventoReadSide) RemoverDeLectura(ctx context.Context, eventoID uuid.UUID) {
	m.Called(ctx, eventoID)
}

func (m *MockEventoReadSide) RestaurarLectura(ctx context.Context, eventoID uuid.UUID) {
	m.Called(ctx, eventoID)
}

type MockReporteStore struct {
	mock.Mock
}

func (m *MockReporteStore) Create(ctx context.Context, reporte *models.Reporte) error {
	args := m.Called(ctx, reporte)
	return args.Error(0)
}

func (m *MockReporteStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Reporte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reporte), args.Error(1)
}

func (m *MockReporteStore) ListByEstado(ctx context.Context, estado string, limit int) ([]models.Reporte, error) {
	args := m.Called(ctx, estado, limit)
	return args.Get(0).([]models.Reporte), args.Error(1)
}

func (m *MockReporteStore) SetEstadoIf(ctx context.Context, id uuid.UUID, from, to string) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}
