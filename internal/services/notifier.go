package services

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/C-Ford17/eventos-app-sub001/internal/messaging"
	"github.com/C-Ford17/eventos-app-sub001/internal/models"
)

// NotificacionStore is the persistence surface the dispatcher needs
type NotificacionStore interface {
	Create(ctx context.Context, notificacion *models.Notificacion) error
}

// Notifier delivers a notification to a user
type Notifier interface {
	Notify(ctx context.Context, usuarioID uuid.UUID, tipo, mensaje string)
}

// NotificationDispatcher publishes notifications to the Service Bus queue
// so the worker persists them out-of-band. When the queue is unavailable
// it falls back to a direct insert; notification delivery is best-effort
// and never fails the triggering operation.
type NotificationDispatcher struct {
	bus  messaging.ServiceBusClient
	repo NotificacionStore
}

// NewNotificationDispatcher creates a dispatcher. bus may be nil, in which
// case every notification is written directly.
func NewNotificationDispatcher(bus messaging.ServiceBusClient, repo NotificacionStore) *NotificationDispatcher {
	return &NotificationDispatcher{bus: bus, repo: repo}
}

// Notify enqueues (or directly persists) a notification
func (d *NotificationDispatcher) Notify(ctx context.Context, usuarioID uuid.UUID, tipo, mensaje string) {
	if d.bus != nil {
		msg := messaging.NotificationMessage{
			UsuarioID: usuarioID,
			Tipo:      tipo,
			Mensaje:   mensaje,
		}
		if err := d.bus.SendMessage(ctx, msg); err == nil {
			return
		} else {
			log.Warn().Err(err).Str("usuario_id", usuarioID.String()).
				Msg("Failed to enqueue notification, falling back to direct insert")
		}
	}

	notificacion := &models.Notificacion{
		ID:        uuid.New(),
		UsuarioID: usuarioID,
		Tipo:      tipo,
		Mensaje:   mensaje,
	}
	if err := d.repo.Create(ctx, notificacion); err != nil {
		log.Error().Err(err).Str("usuario_id", usuarioID.String()).
			Msg("Failed to persist notification")
	}
}

// ProcessNotificationMessage is the worker-side consumer: it unmarshals a
// queued notification and persists it.
func (d *NotificationDispatcher) ProcessNotificationMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error {
	var msg messaging.NotificationMessage
	if err := json.Unmarshal(message.Body, &msg); err != nil {
		return errors.Wrap(err, "failed to unmarshal notification message")
	}

	notificacion := &models.Notificacion{
		ID:        uuid.New(),
		UsuarioID: msg.UsuarioID,
		Tipo:      msg.Tipo,
		Mensaje:   msg.Mensaje,
	}
	if err := d.repo.Create(ctx, notificacion); err != nil {
		return errors.Wrap(err, "failed to persist queued notification")
	}

	log.Info().
		Str("usuario_id", msg.UsuarioID.String()).
		Str("tipo", msg.Tipo).
		Msg("Notification persisted from queue")
	return nil
}
