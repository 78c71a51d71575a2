package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/enums"
)

// ComplaintReason is an operator-curated reason customers can pick from.
type ComplaintReason struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	Description  *string   `gorm:"column:description"`
	IsActive     bool      `gorm:"column:is_active;not null"`
	DisplayOrder int       `gorm:"column:display_order;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *ComplaintReason) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// Complaint is a post-delivery dispute raised by the order's customer.
type Complaint struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Reference       string                `gorm:"column:reference;not null;uniqueIndex:complaints_reference_key"`
	OrderID         uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	InvoiceID       *uuid.UUID            `gorm:"column:invoice_id;type:uuid"`
	CustomerID      uuid.UUID             `gorm:"column:customer_id;type:uuid;not null;index"`
	ReasonID        *uuid.UUID            `gorm:"column:reason_id;type:uuid"`
	CustomReason    *string               `gorm:"column:custom_reason"`
	Description     string                `gorm:"column:description;not null"`
	Attachments     pq.StringArray        `gorm:"column:attachments;type:text[]"`
	Status          enums.ComplaintStatus `gorm:"column:status;type:complaint_status;not null;index"`
	AdminNotes      *string               `gorm:"column:admin_notes"`
	ResolutionNotes *string               `gorm:"column:resolution_notes"`
	HandledBy       *uuid.UUID            `gorm:"column:handled_by;type:uuid"`
	ResolvedAt      *time.Time            `gorm:"column:resolved_at"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Complaint) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
