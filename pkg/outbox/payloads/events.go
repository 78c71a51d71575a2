package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/pkg/enums"
)

// OrderStatusChangedEvent is published on the orders topic for every lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"orderId"`
	Reference  string            `json:"reference"`
	CustomerID uuid.UUID         `json:"customerId"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
	TotalCents int64             `json:"totalCents"`
	ChangedAt  time.Time         `json:"changedAt"`
}

// NotificationRequestedEvent carries a rendered e-mail copy of an in-app notification.
type NotificationRequestedEvent struct {
	NotificationID uuid.UUID              `json:"notificationId"`
	RecipientID    uuid.UUID              `json:"recipientId"`
	Kind           enums.NotificationKind `json:"kind"`
	Email          string                 `json:"email"`
	RecipientName  string                 `json:"recipientName,omitempty"`
	From           string                 `json:"from"`
	Subject        string                 `json:"subject"`
	Body           string                 `json:"body"`
}
