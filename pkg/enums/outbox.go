package enums

// OutboxEventType maps to the event_type_enum column of outbox_events.
type OutboxEventType string

const (
	// EventOrderStatusChanged is queued by every order lifecycle transition.
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	// EventNotificationRequested carries the e-mail copy of an in-app notification.
	EventNotificationRequested OutboxEventType = "notification_requested"
)

// IsValid reports whether the value matches the event_type_enum.
func (e OutboxEventType) IsValid() bool {
	switch e {
	case EventOrderStatusChanged, EventNotificationRequested:
		return true
	}
	return false
}

// OutboxAggregateType names the entity an outbox row describes.
type OutboxAggregateType string

const (
	AggregateOrder        OutboxAggregateType = "order"
	AggregateInvoice      OutboxAggregateType = "invoice"
	AggregateRefund       OutboxAggregateType = "refund"
	AggregateComplaint    OutboxAggregateType = "complaint"
	AggregateNotification OutboxAggregateType = "notification"
)

func (a OutboxAggregateType) IsValid() bool {
	switch a {
	case AggregateOrder, AggregateInvoice, AggregateRefund, AggregateComplaint, AggregateNotification:
		return true
	}
	return false
}

// OutboxDLQErrorReason records why a row was moved to outbox_dlq.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)
