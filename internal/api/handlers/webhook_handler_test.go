package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/C-Ford17/eventos-app-sub001/internal/metrics"
	"github.com/C-Ford17/eventos-app-sub001/internal/models"
)

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) ReconcileFromWebhook(ctx context.Context, dataID string) error {
	args := m.Called(ctx, dataID)
	return args.Error(0)
}

type MockWebhookStore struct {
	mock.Mock
}

func (m *MockWebhookStore) Create(ctx context.Context, evento *models.EventoWebhook) error {
	args := m.Called(ctx, evento)
	return args.Error(0)
}

func (m *MockWebhookStore) MarkProcesado(ctx context.Context, id uuid.UUID, procesadoAt time.Time, errorDetalle string) error {
	args := m.Called(ctx, id, procesadoAt, errorDetalle)
	return args.Error(0)
}

const testSecret = "webhook-secret"

func signWebhook(dataID, requestID, ts string) string {
	manifest := "id:" + dataID + ";request-id:" + requestID + ";ts:" + ts + ";"
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}

func setupWebhookRouter(reconciler *MockReconciler, store *MockWebhookStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewWebhookHandler(reconciler, store, metrics.NewMetrics(), testSecret).RegisterRoutes(router)
	return router
}

func postWebhook(router *gin.Engine, dataID, requestID, signature, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago?data.id="+dataID, strings.NewReader(body))
	if requestID != "" {
		req.Header.Set("x-request-id", requestID)
	}
	if signature != "" {
		req.Header.Set("x-signature", signature)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhookMissingSignatureIsUnauthorized(t *testing.T) {
	reconciler := new(MockReconciler)
	store := new(MockWebhookStore)
	router := setupWebhookRouter(reconciler, store)

	rec := postWebhook(router, "12345", "req-1", "", `{"type":"payment","data":{"id":"12345"}}`)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	// No state change of any kind
	reconciler.AssertNotCalled(t, "ReconcileFromWebhook", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWebhookBadSignatureIsUnauthorized(t *testing.T) {
	reconciler := new(MockReconciler)
	store := new(MockWebhookStore)
	router := setupWebhookRouter(reconciler, store)

	rec := postWebhook(router, "12345", "req-1",
		"ts=1704908010,v1=0000000000000000000000000000000000000000000000000000000000000000",
		`{"type":"payment","data":{"id":"12345"}}`)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	reconciler.AssertNotCalled(t, "ReconcileFromWebhook", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWebhookMissingRequestIDIsUnauthorized(t *testing.T) {
	reconciler := new(MockReconciler)
	store := new(MockWebhookStore)
	router := setupWebhookRouter(reconciler, store)

	ts := "1704908010"
	sig := "ts=" + ts + ",v1=" + signWebhook("12345", "req-1", ts)
	rec := postWebhook(router, "12345", "", sig, `{"type":"payment","data":{"id":"12345"}}`)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	reconciler.AssertNotCalled(t, "ReconcileFromWebhook", mock.Anything, mock.Anything)
}

func TestWebhookPaymentTypeIsReconciled(t *testing.T) {
	reconciler := new(MockReconciler)
	store := new(MockWebhookStore)
	router := setupWebhookRouter(reconciler, store)

	store.On("Create", mock.Anything, mock.AnythingOfType("*models.EventoWebhook")).Return(nil)
	store.On("MarkProcesado", mock.Anything, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("time.Time"), "").Return(nil)
	reconciler.On("ReconcileFromWebhook", mock.Anything, "12345").Return(nil)

	ts := "1704908010"
	sig := "ts=" + ts + ",v1=" + signWebhook("12345", "req-1", ts)
	rec := postWebhook(router, "12345", "req-1", sig, `{"type":"payment","data":{"id":"12345"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "processed")
	reconciler.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestWebhookReconcilesSignedIDNotBodyID(t *testing.T) {
	reconciler := new(MockReconciler)
	store := new(MockWebhookStore)
	router := setupWebhookRouter(reconciler, store)

	store.On("Create", mock.Anything, mock.AnythingOfType("*models.EventoWebhook")).Return(nil)
	store.On("MarkProcesado", mock.Anything, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("time.Time"), "").Return(nil)
	reconciler.On("ReconcileFromWebhook", mock.Anything, "12345").Return(nil)

	// Body claims a different payment id; only the signed query value counts
	ts := "1704908010"
	sig := "ts=" + ts + ",v1=" + signWebhook("12345", "req-1", ts)
	rec := postWebhook(router, "12345", "req-1", sig, `{"type":"payment","data":{"id":"99999"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	reconciler.AssertExpectations(t)
	reconciler.AssertNotCalled(t, "ReconcileFromWebhook", mock.Anything, "99999")
}

func TestWebhookNonPaymentTypeIsAcknowledgedIgnored(t *testing.T) {
	reconciler := new(MockReconciler)
	store := new(MockWebhookStore)
	router := setupWebhookRouter(reconciler, store)

	store.On("Create", mock.Anything, mock.AnythingOfType("*models.EventoWebhook")).Return(nil)

	ts := "1704908010"
	sig := "ts=" + ts + ",v1=" + signWebhook("67890", "req-2", ts)
	rec := postWebhook(router, "67890", "req-2", sig, `{"type":"plan","data":{"id":"67890"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ignored")
	reconciler.AssertNotCalled(t, "ReconcileFromWebhook", mock.Anything, mock.Anything)
}
