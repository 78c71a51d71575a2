package views

import (
	"time"

	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
)

type OrderItem struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	ProductName    string     `json:"product_name"`
	VariantName    *string    `json:"variant_name,omitempty"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int64      `json:"unit_price_cents"`
	LineTotalCents int64      `json:"line_total_cents"`
}

type OrderNote struct {
	Body        string     `json:"body"`
	Attachments []string   `json:"attachments"`
	AuthorID    *uuid.UUID `json:"author_id,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Shipping struct {
	RecipientName      string     `json:"recipient_name"`
	Phone              string     `json:"phone"`
	AddressLine        string     `json:"address_line"`
	City               string     `json:"city"`
	State              string     `json:"state"`
	PostalCode         *string    `json:"postal_code,omitempty"`
	Country            string     `json:"country"`
	ShippingOptionID   *uuid.UUID `json:"shipping_option_id,omitempty"`
	ShippingOptionName *string    `json:"shipping_option_name,omitempty"`
	TrackingNumber     *string    `json:"tracking_number,omitempty"`
}

type Order struct {
	ID              uuid.UUID         `json:"id"`
	Reference       string            `json:"reference"`
	CustomerID      uuid.UUID         `json:"customer_id"`
	Status          enums.OrderStatus `json:"status"`
	Shipping        Shipping          `json:"shipping"`
	SubtotalCents   int64             `json:"subtotal_cents"`
	TaxCents        int64             `json:"tax_cents"`
	ShippingCents   int64             `json:"shipping_cents"`
	TotalCents      int64             `json:"total_cents"`
	CustomerNotes   *string           `json:"customer_notes,omitempty"`
	Items           []OrderItem       `json:"items"`
	Note            *OrderNote        `json:"note,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	ConfirmedAt     *time.Time        `json:"confirmed_at,omitempty"`
	RejectedAt      *time.Time        `json:"rejected_at,omitempty"`
	PaidAt          *time.Time        `json:"paid_at,omitempty"`
	ProcessingAt    *time.Time        `json:"processing_at,omitempty"`
	ShippedAt       *time.Time        `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time        `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time        `json:"cancelled_at,omitempty"`
	RefundPendingAt *time.Time        `json:"refund_pending_at,omitempty"`
	RefundedAt      *time.Time        `json:"refunded_at,omitempty"`
}

// NewOrder flattens an order and whatever relations were loaded with it.
func NewOrder(o *models.Order) Order {
	view := Order{
		ID:         o.ID,
		Reference:  o.Reference,
		CustomerID: o.CustomerID,
		Status:     o.Status,
		Shipping: Shipping{
			RecipientName:      o.RecipientName,
			Phone:              o.Phone,
			AddressLine:        o.AddressLine,
			City:               o.City,
			State:              o.State,
			PostalCode:         o.PostalCode,
			Country:            o.Country,
			ShippingOptionID:   o.ShippingOptionID,
			ShippingOptionName: o.ShippingOptionName,
			TrackingNumber:     o.TrackingNumber,
		},
		SubtotalCents:   o.SubtotalCents,
		TaxCents:        o.TaxCents,
		ShippingCents:   o.ShippingCents,
		TotalCents:      o.TotalCents,
		CustomerNotes:   o.CustomerNotes,
		Items:           make([]OrderItem, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		ConfirmedAt:     o.ConfirmedAt,
		RejectedAt:      o.RejectedAt,
		PaidAt:          o.PaidAt,
		ProcessingAt:    o.ProcessingAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		RefundPendingAt: o.RefundPendingAt,
		RefundedAt:      o.RefundedAt,
	}
	for _, item := range o.Items {
		view.Items = append(view.Items, OrderItem{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			ProductName:    item.ProductName,
			VariantName:    item.VariantName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents,
		})
	}
	if o.Note != nil {
		note := NewOrderNote(o.Note)
		view.Note = &note
	}
	return view
}

func NewOrderNote(n *models.OrderNote) OrderNote {
	attachments := []string(n.Attachments)
	if attachments == nil {
		attachments = []string{}
	}
	return OrderNote{
		Body:        n.Body,
		Attachments: attachments,
		AuthorID:    n.AuthorID,
		UpdatedAt:   n.UpdatedAt,
	}
}

func NewOrderPage(page *pagination.Page[models.Order]) pagination.Page[Order] {
	return mapPage(page, NewOrder)
}

func mapPage[M any, V any](page *pagination.Page[M], fn func(*M) V) pagination.Page[V] {
	out := pagination.Page[V]{Items: []V{}}
	if page == nil {
		return out
	}
	out.NextCursor = page.NextCursor
	for i := range page.Items {
		out.Items = append(out.Items, fn(&page.Items[i]))
	}
	return out
}
