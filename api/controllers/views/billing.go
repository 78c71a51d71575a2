package views

import (
	"time"

	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
)

type Invoice struct {
	ID                  uuid.UUID           `json:"id"`
	Number              string              `json:"number"`
	OrderID             uuid.UUID           `json:"order_id"`
	CustomerID          uuid.UUID           `json:"customer_id"`
	Status              enums.InvoiceStatus `json:"status"`
	SubtotalCents       int64               `json:"subtotal_cents"`
	TaxCents            int64               `json:"tax_cents"`
	ShippingCents       int64               `json:"shipping_cents"`
	TotalCents          int64               `json:"total_cents"`
	Currency            string              `json:"currency"`
	PaymentInstructions *string             `json:"payment_instructions,omitempty"`
	IssuedAt            time.Time           `json:"issued_at"`
	PaidAt              *time.Time          `json:"paid_at,omitempty"`
	RefundedAt          *time.Time          `json:"refunded_at,omitempty"`
}

func NewInvoice(inv *models.Invoice) Invoice {
	return Invoice{
		ID:                  inv.ID,
		Number:              inv.Number,
		OrderID:             inv.OrderID,
		CustomerID:          inv.CustomerID,
		Status:              inv.Status,
		SubtotalCents:       inv.SubtotalCents,
		TaxCents:            inv.TaxCents,
		ShippingCents:       inv.ShippingCents,
		TotalCents:          inv.TotalCents,
		Currency:            inv.Currency,
		PaymentInstructions: inv.PaymentInstructions,
		IssuedAt:            inv.IssuedAt,
		PaidAt:              inv.PaidAt,
		RefundedAt:          inv.RefundedAt,
	}
}

type PaymentProof struct {
	ID                   uuid.UUID           `json:"id"`
	InvoiceID            uuid.UUID           `json:"invoice_id"`
	SubmittedBy          uuid.UUID           `json:"submitted_by"`
	Method               enums.PaymentMethod `json:"method"`
	EvidenceRef          string              `json:"evidence_ref"`
	TransactionReference *string             `json:"transaction_reference,omitempty"`
	Notes                *string             `json:"notes,omitempty"`
	Pending              bool                `json:"pending"`
	Verified             bool                `json:"verified"`
	ReviewedBy           *uuid.UUID          `json:"reviewed_by,omitempty"`
	ReviewedAt           *time.Time          `json:"reviewed_at,omitempty"`
	RejectionReason      *string             `json:"rejection_reason,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
}

func NewPaymentProof(p *models.PaymentProof) PaymentProof {
	return PaymentProof{
		ID:                   p.ID,
		InvoiceID:            p.InvoiceID,
		SubmittedBy:          p.SubmittedBy,
		Method:               p.Method,
		EvidenceRef:          p.EvidenceRef,
		TransactionReference: p.TransactionReference,
		Notes:                p.Notes,
		Pending:              p.IsPending(),
		Verified:             p.Verified,
		ReviewedBy:           p.ReviewedBy,
		ReviewedAt:           p.ReviewedAt,
		RejectionReason:      p.RejectionReason,
		CreatedAt:            p.CreatedAt,
	}
}

func NewPaymentProofs(rows []models.PaymentProof) []PaymentProof {
	out := make([]PaymentProof, 0, len(rows))
	for i := range rows {
		out = append(out, NewPaymentProof(&rows[i]))
	}
	return out
}

func NewPaymentProofPage(page *pagination.Page[models.PaymentProof]) pagination.Page[PaymentProof] {
	return mapPage(page, NewPaymentProof)
}

type PaymentReceipt struct {
	ID          uuid.UUID           `json:"id"`
	Number      string              `json:"number"`
	InvoiceID   uuid.UUID           `json:"invoice_id"`
	ProofID     uuid.UUID           `json:"proof_id"`
	AmountCents int64               `json:"amount_cents"`
	Method      enums.PaymentMethod `json:"method"`
	IssuedBy    uuid.UUID           `json:"issued_by"`
	PaidAt      time.Time           `json:"paid_at"`
}

func NewPaymentReceipt(r *models.PaymentReceipt) *PaymentReceipt {
	if r == nil {
		return nil
	}
	return &PaymentReceipt{
		ID:          r.ID,
		Number:      r.Number,
		InvoiceID:   r.InvoiceID,
		ProofID:     r.ProofID,
		AmountCents: r.AmountCents,
		Method:      r.Method,
		IssuedBy:    r.IssuedBy,
		PaidAt:      r.PaidAt,
	}
}
