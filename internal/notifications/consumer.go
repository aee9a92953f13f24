package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	"github.com/workoutbrothers/storefront-backend/pkg/idempotency"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
	"github.com/workoutbrothers/storefront-backend/pkg/outbox"
	"github.com/workoutbrothers/storefront-backend/pkg/outbox/payloads"
)

// ConsumerName scopes idempotency claims for the mailer.
const ConsumerName = "notification-mailer"

// Delivery is one message taken off the notification topic.
type Delivery struct {
	ID         string
	Attributes map[string]string
	Data       []byte
}

// Consumer turns notification_requested events into emails.
type Consumer struct {
	mailer Mailer
	guard  *idempotency.Guard
	logg   *logger.Logger
}

// NewConsumer builds the notification consumer.
func NewConsumer(mailer Mailer, guard *idempotency.Guard, logg *logger.Logger) (*Consumer, error) {
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{mailer: mailer, guard: guard, logg: logg}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context, subscription *pubsub.Subscriber) error {
	if subscription == nil {
		return errors.New("notification subscription required")
	}
	return subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		err := c.Handle(ctx, Delivery{ID: msg.ID, Attributes: msg.Attributes, Data: msg.Data})
		if err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Handle processes one delivery. A nil result acks the message; an error asks
// for redelivery.
func (c *Consumer) Handle(ctx context.Context, d Delivery) error {
	eventType := d.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": d.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventNotificationRequested) {
		c.logg.Info(logCtx, "skipping non-notification event")
		return nil
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(d.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return nil
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return nil
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	claimed, err := c.guard.Claim(ctx, eventID.String())
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return err
	}
	if !claimed {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	if err := c.deliver(ctx, logCtx, envelope); err != nil {
		c.logg.Error(logCtx, "notification delivery failed", err)
		if delErr := c.guard.Release(ctx, eventID.String()); delErr != nil {
			c.logg.Error(logCtx, "failed to release idempotency key", delErr)
		}
		return err
	}
	return nil
}

func (c *Consumer) deliver(ctx, logCtx context.Context, envelope outbox.PayloadEnvelope) error {
	var event payloads.NotificationRequestedEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}
	msg, err := Render(event)
	if err != nil {
		return err
	}
	if err := c.mailer.Send(ctx, msg); err != nil {
		return err
	}
	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
		"kind": event.Kind,
		"to":   msg.To,
	}), "notification sent")
	return nil
}
