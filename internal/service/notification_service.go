package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/approval-service/internal/config"
	"github.com/spec-kit/approval-service/internal/events"
)

// DeliveryChannel names a notification transport.
type DeliveryChannel string

const (
	DeliveryChannelEmail   DeliveryChannel = "email"
	DeliveryChannelWebhook DeliveryChannel = "webhook"
)

// Delivery is one queued notification send.
type Delivery struct {
	Channel    DeliveryChannel
	EventType  events.EventType
	ArtifactID string
	Payload    any
}

// NotificationService turns domain events into queued notification deliveries.
// Handlers only enqueue; the notification worker drains the queue so event
// publication never blocks on a slow transport.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	queue      chan Delivery
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		queue:      make(chan Delivery, 256),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventArtifactSubmitted, n.handleSubmitted)
	n.dispatcher.Subscribe(events.EventArtifactStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventArtifactCommentAdded, n.handleCommentAdded)
	n.dispatcher.Subscribe(events.EventArtifactSignatureProvided, n.handleSignatureProvided)
}

// Deliveries exposes the queue for the worker.
func (n *NotificationService) Deliveries() <-chan Delivery {
	return n.queue
}

func (n *NotificationService) handleSubmitted(_ context.Context, event events.Event) error {
	n.logger.Info("ArtifactSubmitted", zap.String("artifact_id", event.ArtifactID), zap.Any("payload", event.Payload))
	n.enqueue(event, DeliveryChannelEmail)
	n.enqueue(event, DeliveryChannelWebhook)
	return nil
}

func (n *NotificationService) handleStatusChanged(_ context.Context, event events.Event) error {
	n.logger.Info("ArtifactStatusChanged", zap.String("artifact_id", event.ArtifactID), zap.Any("payload", event.Payload))
	n.enqueue(event, DeliveryChannelWebhook)
	return nil
}

func (n *NotificationService) handleCommentAdded(_ context.Context, event events.Event) error {
	n.logger.Info("ArtifactCommentAdded", zap.String("artifact_id", event.ArtifactID), zap.Any("payload", event.Payload))
	n.enqueue(event, DeliveryChannelEmail)
	return nil
}

func (n *NotificationService) handleSignatureProvided(_ context.Context, event events.Event) error {
	n.logger.Info("ArtifactSignatureProvided", zap.String("artifact_id", event.ArtifactID), zap.Any("payload", event.Payload))
	n.enqueue(event, DeliveryChannelEmail)
	n.enqueue(event, DeliveryChannelWebhook)
	return nil
}

func (n *NotificationService) enqueue(event events.Event, channel DeliveryChannel) {
	if !n.channelConfigured(channel) {
		return
	}
	delivery := Delivery{
		Channel:    channel,
		EventType:  event.Type,
		ArtifactID: event.ArtifactID,
		Payload:    event.Payload,
	}
	select {
	case n.queue <- delivery:
	default:
		n.logger.Warn("notification queue full, dropping delivery",
			zap.String("artifact_id", event.ArtifactID),
			zap.String("channel", string(channel)))
	}
}

func (n *NotificationService) channelConfigured(channel DeliveryChannel) bool {
	switch channel {
	case DeliveryChannelEmail:
		return strings.TrimSpace(n.cfg.EmailFrom) != ""
	case DeliveryChannelWebhook:
		return strings.TrimSpace(n.cfg.WebhookURL) != ""
	default:
		return false
	}
}

// Deliver performs the actual send for one delivery. Transports are stubbed;
// TODO: replace the webhook stub with an HTTP POST once the receiving side exists.
func (n *NotificationService) Deliver(_ context.Context, delivery Delivery) {
	switch delivery.Channel {
	case DeliveryChannelEmail:
		n.logger.Debug("sendEmailNotification",
			zap.String("from", n.cfg.EmailFrom),
			zap.String("artifact_id", delivery.ArtifactID),
			zap.String("event_type", string(delivery.EventType)))
	case DeliveryChannelWebhook:
		n.logger.Debug("sendWebhookNotification",
			zap.String("url", n.cfg.WebhookURL),
			zap.String("artifact_id", delivery.ArtifactID),
			zap.String("event_type", string(delivery.EventType)))
	}
}
