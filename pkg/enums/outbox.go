package enums

import "slices"

// OutboxAggregateType names the aggregate an outbox row belongs to.
type OutboxAggregateType string

const (
	AggregateOrder  OutboxAggregateType = "order"
	AggregateReport OutboxAggregateType = "report"
)

func (a OutboxAggregateType) IsValid() bool {
	return slices.Contains([]OutboxAggregateType{AggregateOrder, AggregateReport}, a)
}

// OutboxEventType names the event carried by an outbox row. Every email the
// system sends travels as a notification_requested event.
type OutboxEventType string

const EventNotificationRequested OutboxEventType = "notification_requested"

func (e OutboxEventType) IsValid() bool {
	return e == EventNotificationRequested
}

// OutboxDLQErrorReason explains why a row landed in outbox_dlq.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)
