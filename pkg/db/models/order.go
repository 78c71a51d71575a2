package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/enums"
)

// Order is the aggregate root of the fulfillment lifecycle. Amounts are fixed
// at submission: TotalCents = SubtotalCents + TaxCents + ShippingCents.
type Order struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Reference  string            `gorm:"column:reference;not null;uniqueIndex:orders_reference_key"`
	CustomerID uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	Status     enums.OrderStatus `gorm:"column:status;type:order_status;not null;index"`

	RecipientName      string     `gorm:"column:recipient_name;not null"`
	Phone              string     `gorm:"column:phone;not null"`
	AddressLine        string     `gorm:"column:address_line;not null"`
	City               string     `gorm:"column:city;not null"`
	State              string     `gorm:"column:state;not null"`
	PostalCode         *string    `gorm:"column:postal_code"`
	Country            string     `gorm:"column:country;not null"`
	ShippingOptionID   *uuid.UUID `gorm:"column:shipping_option_id;type:uuid"`
	ShippingOptionName *string    `gorm:"column:shipping_option_name"`

	SubtotalCents int64 `gorm:"column:subtotal_cents;not null"`
	TaxCents      int64 `gorm:"column:tax_cents;not null"`
	ShippingCents int64 `gorm:"column:shipping_cents;not null"`
	TotalCents    int64 `gorm:"column:total_cents;not null"`

	CustomerNotes  *string    `gorm:"column:customer_notes"`
	TrackingNumber *string    `gorm:"column:tracking_number"`
	ConfirmedBy    *uuid.UUID `gorm:"column:confirmed_by;type:uuid"`

	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	ConfirmedAt     *time.Time `gorm:"column:confirmed_at"`
	RejectedAt      *time.Time `gorm:"column:rejected_at"`
	PaidAt          *time.Time `gorm:"column:paid_at"`
	ProcessingAt    *time.Time `gorm:"column:processing_at"`
	ShippedAt       *time.Time `gorm:"column:shipped_at"`
	DeliveredAt     *time.Time `gorm:"column:delivered_at"`
	CancelledAt     *time.Time `gorm:"column:cancelled_at"`
	RefundPendingAt *time.Time `gorm:"column:refund_pending_at"`
	RefundedAt      *time.Time `gorm:"column:refunded_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
	Note  *OrderNote  `gorm:"foreignKey:OrderID"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem snapshots a product line at submission time.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	ProductName    string     `gorm:"column:product_name;not null"`
	VariantName    *string    `gorm:"column:variant_name"`
	Quantity       int        `gorm:"column:quantity;not null"`
	UnitPriceCents int64      `gorm:"column:unit_price_cents;not null"`
	LineTotalCents int64      `gorm:"column:line_total_cents;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// OrderNote holds the single operator annotation attached to an order.
type OrderNote struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID      `gorm:"column:order_id;type:uuid;not null;uniqueIndex:order_notes_order_id_key"`
	Body        string         `gorm:"column:body;not null"`
	Attachments pq.StringArray `gorm:"column:attachments;type:text[]"`
	AuthorID    *uuid.UUID     `gorm:"column:author_id;type:uuid"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (n *OrderNote) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
