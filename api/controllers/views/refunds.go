package views

import (
	"time"

	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
)

type Refund struct {
	ID          uuid.UUID          `json:"id"`
	Reference   string             `json:"reference"`
	OrderID     uuid.UUID          `json:"order_id"`
	InvoiceID   uuid.UUID          `json:"invoice_id"`
	ComplaintID *uuid.UUID         `json:"complaint_id,omitempty"`
	AmountCents int64              `json:"amount_cents"`
	Reason      string             `json:"reason"`
	Status      enums.RefundStatus `json:"status"`
	InitiatedBy uuid.UUID          `json:"initiated_by"`
	ApprovedBy  *uuid.UUID         `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time         `json:"approved_at,omitempty"`
	ProcessedBy *uuid.UUID         `json:"processed_by,omitempty"`
	ProcessedAt *time.Time         `json:"processed_at,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func NewRefund(r *models.Refund) Refund {
	return Refund{
		ID:          r.ID,
		Reference:   r.Reference,
		OrderID:     r.OrderID,
		InvoiceID:   r.InvoiceID,
		ComplaintID: r.ComplaintID,
		AmountCents: r.AmountCents,
		Reason:      r.Reason,
		Status:      r.Status,
		InitiatedBy: r.InitiatedBy,
		ApprovedBy:  r.ApprovedBy,
		ApprovedAt:  r.ApprovedAt,
		ProcessedBy: r.ProcessedBy,
		ProcessedAt: r.ProcessedAt,
		CompletedAt: r.CompletedAt,
		CreatedAt:   r.CreatedAt,
	}
}

func NewRefunds(rows []models.Refund) []Refund {
	out := make([]Refund, 0, len(rows))
	for i := range rows {
		out = append(out, NewRefund(&rows[i]))
	}
	return out
}

func NewRefundPage(page *pagination.Page[models.Refund]) pagination.Page[Refund] {
	return mapPage(page, NewRefund)
}

type RefundProof struct {
	ID                   uuid.UUID          `json:"id"`
	Method               enums.RefundMethod `json:"method"`
	EvidenceRef          string             `json:"evidence_ref"`
	TransactionReference *string            `json:"transaction_reference,omitempty"`
	Notes                *string            `json:"notes,omitempty"`
	UploadedBy           uuid.UUID          `json:"uploaded_by"`
	CreatedAt            time.Time          `json:"created_at"`
}

func NewRefundProof(p *models.RefundProof) *RefundProof {
	if p == nil {
		return nil
	}
	return &RefundProof{
		ID:                   p.ID,
		Method:               p.Method,
		EvidenceRef:          p.EvidenceRef,
		TransactionReference: p.TransactionReference,
		Notes:                p.Notes,
		UploadedBy:           p.UploadedBy,
		CreatedAt:            p.CreatedAt,
	}
}

type RefundReceipt struct {
	ID          uuid.UUID          `json:"id"`
	Number      string             `json:"number"`
	RefundID    uuid.UUID          `json:"refund_id"`
	AmountCents int64              `json:"amount_cents"`
	Method      enums.RefundMethod `json:"method"`
	IssuedAt    time.Time          `json:"issued_at"`
}

func NewRefundReceipt(r *models.RefundReceipt) *RefundReceipt {
	if r == nil {
		return nil
	}
	return &RefundReceipt{
		ID:          r.ID,
		Number:      r.Number,
		RefundID:    r.RefundID,
		AmountCents: r.AmountCents,
		Method:      r.Method,
		IssuedAt:    r.IssuedAt,
	}
}
