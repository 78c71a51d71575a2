package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/enums"
)

// Notification stores an in-app message for a single recipient. Rows are
// immutable apart from ReadAt.
type Notification struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	RecipientID uuid.UUID              `gorm:"column:recipient_id;type:uuid;not null;index:notifications_recipient_created_idx,priority:1"`
	Kind        enums.NotificationKind `gorm:"column:kind;type:notification_kind;not null"`
	Title       string                 `gorm:"column:title;not null"`
	Message     string                 `gorm:"column:message;not null"`
	OrderID     *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	InvoiceID   *uuid.UUID             `gorm:"column:invoice_id;type:uuid"`
	ComplaintID *uuid.UUID             `gorm:"column:complaint_id;type:uuid"`
	RefundID    *uuid.UUID             `gorm:"column:refund_id;type:uuid"`
	ReadAt      *time.Time             `gorm:"column:read_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime;index:notifications_recipient_created_idx,priority:2"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}

// IsRead reports whether the recipient has opened the notification.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}
