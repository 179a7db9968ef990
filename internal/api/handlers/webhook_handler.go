package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/C-Ford17/eventos-app-sub001/internal/gateway"
	"github.com/C-Ford17/eventos-app-sub001/internal/metrics"
	"github.com/C-Ford17/eventos-app-sub001/internal/models"
)

const webhookProveedor = "mercadopago"

// PaymentReconciler applies the authoritative gateway status for a payment
type PaymentReconciler interface {
	ReconcileFromWebhook(ctx context.Context, dataID string) error
}

// WebhookStore records received notifications
type WebhookStore interface {
	Create(ctx context.Context, evento *models.EventoWebhook) error
	MarkProcesado(ctx context.Context, id uuid.UUID, procesadoAt time.Time, errorDetalle string) error
}

// WebhookHandler receives payment gateway notifications
type WebhookHandler struct {
	reconciler  PaymentReconciler
	webhookRepo WebhookStore
	collector   *metrics.Metrics
	secret      string
}

func NewWebhookHandler(
	reconciler PaymentReconciler,
	webhookRepo WebhookStore,
	collector *metrics.Metrics,
	secret string,
) *WebhookHandler {
	return &WebhookHandler{
		reconciler:  reconciler,
		webhookRepo: webhookRepo,
		collector:   collector,
		secret:      secret,
	}
}

// RegisterRoutes registers the webhook route. It is unauthenticated; the
// HMAC signature is the only trust anchor.
func (h *WebhookHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/webhooks/mercadopago", h.HandleNotification)
}

// webhookBody is the notification payload shape. Only the type matters; the
// authoritative payment status is re-fetched from the gateway, never trusted
// from this body.
type webhookBody struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// HandleNotification verifies the notification signature and reconciles the
// referenced payment. Signature failure is a 401 with no state change.
func (h *WebhookHandler) HandleNotification(c *gin.Context) {
	h.collector.IncrementCounter(metrics.WebhooksRecibidos)

	dataID := c.Query("data.id")
	requestID := c.GetHeader("x-request-id")

	ts, v1, err := gateway.ParseSignatureHeader(c.GetHeader("x-signature"))
	if err != nil {
		h.collector.IncrementCounter(metrics.WebhooksRechazados)
		log.Warn().Str("data_id", dataID).Msg("Webhook missing signature headers")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing signature"})
		return
	}

	if requestID == "" {
		h.collector.IncrementCounter(metrics.WebhooksRechazados)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing request id"})
		return
	}

	if err := gateway.VerifySignature(h.secret, dataID, requestID, ts, v1); err != nil {
		h.collector.IncrementCounter(metrics.WebhooksRechazados)
		log.Warn().Str("data_id", dataID).Str("request_id", requestID).Msg("Webhook signature verification failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	var body webhookBody
	if err := json.Unmarshal(raw, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	// The HMAC covers the query data.id; the body id is only a cross-check
	// and never drives reconciliation.
	if body.Data.ID != "" && body.Data.ID != dataID {
		log.Warn().Str("data_id", dataID).Str("body_id", body.Data.ID).
			Msg("Webhook body id differs from signed query id")
	}

	registro := &models.EventoWebhook{
		ID:          uuid.New(),
		Proveedor:   webhookProveedor,
		ExternoID:   requestID,
		Tipo:        body.Type,
		Payload:     string(raw),
		FirmaValida: true,
	}
	if err := h.webhookRepo.Create(c.Request.Context(), registro); err != nil {
		log.Error().Err(err).Msg("Failed to record webhook notification")
	}

	// Only payment notifications drive state; everything else is
	// acknowledged as ignored.
	if body.Type != "payment" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := h.reconciler.ReconcileFromWebhook(c.Request.Context(), dataID); err != nil {
		h.markProcesado(c, registro.ID, err.Error())
		respondError(c, err)
		return
	}

	h.markProcesado(c, registro.ID, "")
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

func (h *WebhookHandler) markProcesado(c *gin.Context, id uuid.UUID, detalle string) {
	if err := h.webhookRepo.MarkProcesado(c.Request.Context(), id, time.Now(), detalle); err != nil {
		log.Error().Err(err).Msg("Failed to mark webhook as processed")
	}
}
