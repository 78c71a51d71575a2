package notifications

import (
	"context"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/pkg/config"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
	"github.com/equiptrade/fulfillment-backend/pkg/mailer"
	"github.com/equiptrade/fulfillment-backend/pkg/metrics"
	"github.com/equiptrade/fulfillment-backend/pkg/outbox"
	"github.com/equiptrade/fulfillment-backend/pkg/outbox/payloads"
)

const emailDeliveryConsumer = "notification-email"

type processedTracker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
}

// DeliveryConsumerParams wires the e-mail delivery consumer.
type DeliveryConsumerParams struct {
	Subscription *pubsub.Subscriber
	Idempotency  processedTracker
	Sender       mailer.Sender
	Site         config.SiteConfig
	Metrics      *metrics.DeliveryMetrics
	Logger       *logger.Logger
}

// DeliveryConsumer sends the e-mail copy of each notification_requested event.
// Delivery is best effort: failures are logged and counted, then acknowledged.
type DeliveryConsumer struct {
	subscription *pubsub.Subscriber
	idempotency  processedTracker
	sender       mailer.Sender
	site         config.SiteConfig
	metrics      *metrics.DeliveryMetrics
	logg         *logger.Logger
}

// NewDeliveryConsumer validates and builds the consumer.
func NewDeliveryConsumer(params DeliveryConsumerParams) (*DeliveryConsumer, error) {
	if params.Subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &DeliveryConsumer{
		subscription: params.Subscription,
		idempotency:  params.Idempotency,
		sender:       params.Sender,
		site:         params.Site,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *DeliveryConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Attributes, msg.Data).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	nack bool
}

func (c *DeliveryConsumer) process(ctx context.Context, messageID string, attrs map[string]string, data []byte) processResult {
	eventType := attrs["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventNotificationRequested) {
		c.logg.Info(logCtx, "skipping non-notification event")
		return processResult{}
	}

	envelope, err := outbox.DecodeEnvelope(data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{}
	}
	eventID, _ := envelope.ID()

	var payload payloads.NotificationRequestedEvent
	if err := envelope.DecodeData(&payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{}
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"notification_id": payload.NotificationID.String(),
		"kind":            payload.Kind,
	})

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, emailDeliveryConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{}
	}

	msg := mailer.Message{
		From:    mailer.Address{Email: payload.From, Name: c.site.Name},
		To:      mailer.Address{Email: payload.Email, Name: payload.RecipientName},
		Subject: payload.Subject,
		Body:    payload.Body,
	}
	if msg.From.Email == "" {
		msg.From.Email = c.site.FromEmail
	}
	if c.site.SupportEmail != "" {
		msg.ReplyTo = &mailer.Address{Email: c.site.SupportEmail}
	}

	if err := c.sender.Send(ctx, msg); err != nil {
		deliveryErr := pkgerrors.Wrap(pkgerrors.CodeExternalDelivery, err, "notification e-mail delivery failed")
		c.logg.Error(logCtx, "notification e-mail not delivered", deliveryErr)
		c.metrics.Observe(string(payload.Kind), metrics.OutcomeFailed)
		return processResult{}
	}

	c.metrics.Observe(string(payload.Kind), metrics.OutcomeSent)
	c.logg.Info(logCtx, "notification e-mail sent")
	return processResult{}
}
