package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/enums"
)

// Invoice is the billing document derived from a confirmed order. There is at
// most one per order.
type Invoice struct {
	ID                  uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Number              string              `gorm:"column:number;not null;uniqueIndex:invoices_number_key"`
	OrderID             uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex:invoices_order_id_key"`
	CustomerID          uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	Status              enums.InvoiceStatus `gorm:"column:status;type:invoice_status;not null"`
	SubtotalCents       int64               `gorm:"column:subtotal_cents;not null"`
	TaxCents            int64               `gorm:"column:tax_cents;not null"`
	ShippingCents       int64               `gorm:"column:shipping_cents;not null"`
	TotalCents          int64               `gorm:"column:total_cents;not null"`
	Currency            string              `gorm:"column:currency;not null"`
	PaymentInstructions *string             `gorm:"column:payment_instructions"`
	IssuedAt            time.Time           `gorm:"column:issued_at;not null"`
	PaidAt              *time.Time          `gorm:"column:paid_at"`
	RefundedAt          *time.Time          `gorm:"column:refunded_at"`
	CreatedAt           time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
