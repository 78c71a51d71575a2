package views

import (
	"time"

	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
)

type Notification struct {
	ID          uuid.UUID              `json:"id"`
	Kind        enums.NotificationKind `json:"kind"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	OrderID     *uuid.UUID             `json:"order_id,omitempty"`
	InvoiceID   *uuid.UUID             `json:"invoice_id,omitempty"`
	ComplaintID *uuid.UUID             `json:"complaint_id,omitempty"`
	RefundID    *uuid.UUID             `json:"refund_id,omitempty"`
	Read        bool                   `json:"read"`
	ReadAt      *time.Time             `json:"read_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

func NewNotification(n *models.Notification) Notification {
	return Notification{
		ID:          n.ID,
		Kind:        n.Kind,
		Title:       n.Title,
		Message:     n.Message,
		OrderID:     n.OrderID,
		InvoiceID:   n.InvoiceID,
		ComplaintID: n.ComplaintID,
		RefundID:    n.RefundID,
		Read:        n.IsRead(),
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
	}
}

func NewNotificationPage(page *pagination.Page[models.Notification]) pagination.Page[Notification] {
	return mapPage(page, NewNotification)
}
