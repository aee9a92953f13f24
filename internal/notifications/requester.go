package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	"github.com/workoutbrothers/storefront-backend/pkg/outbox"
	"github.com/workoutbrothers/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (uuid.UUID, error)
}

// Requester queues email requests as outbox rows. Delivery happens in the
// notification worker once the outbox publisher forwards the row.
type Requester struct {
	tx           txRunner
	outbox       emitter
	adminAddress string
}

func NewRequester(tx txRunner, emitter emitter, adminAddress string) (*Requester, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &Requester{tx: tx, outbox: emitter, adminAddress: strings.TrimSpace(adminAddress)}, nil
}

// OrderConfirmation asks for the confirmation email of a freshly placed order.
func (r *Requester) OrderConfirmation(ctx context.Context, recipient string, data payloads.OrderConfirmation) error {
	return r.request(ctx, enums.AggregateOrder, data.OrderID, payloads.NotificationRequestedEvent{
		Kind:              enums.NotificationOrderConfirmation,
		Recipient:         recipient,
		OrderConfirmation: &data,
	})
}

// StockAlert asks for a low-stock email to the store admin.
func (r *Requester) StockAlert(ctx context.Context, alert payloads.StockAlert) error {
	return r.request(ctx, enums.AggregateReport, uuid.New(), payloads.NotificationRequestedEvent{
		Kind:       enums.NotificationStockAlert,
		Recipient:  r.adminAddress,
		StockAlert: &alert,
	})
}

// Report asks for a weekly or monthly summary email to the store admin.
func (r *Requester) Report(ctx context.Context, kind enums.NotificationKind, report payloads.Report) error {
	if kind != enums.NotificationWeeklyReport && kind != enums.NotificationMonthlyReport {
		return fmt.Errorf("unsupported report kind %q", kind)
	}
	return r.request(ctx, enums.AggregateReport, uuid.New(), payloads.NotificationRequestedEvent{
		Kind:      kind,
		Recipient: r.adminAddress,
		Report:    &report,
	})
}

func (r *Requester) request(ctx context.Context, aggregate enums.OutboxAggregateType, aggregateID uuid.UUID, event payloads.NotificationRequestedEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	return r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := r.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: aggregate,
			AggregateID:   aggregateID,
			Data:          event,
		})
		return err
	})
}
