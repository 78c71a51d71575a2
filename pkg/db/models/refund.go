package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/enums"
)

// Refund tracks money returned to the customer against a paid invoice.
type Refund struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Reference   string             `gorm:"column:reference;not null;uniqueIndex:refunds_reference_key"`
	OrderID     uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	InvoiceID   uuid.UUID          `gorm:"column:invoice_id;type:uuid;not null;index"`
	ComplaintID *uuid.UUID         `gorm:"column:complaint_id;type:uuid"`
	AmountCents int64              `gorm:"column:amount_cents;not null"`
	Reason      string             `gorm:"column:reason;not null"`
	Status      enums.RefundStatus `gorm:"column:status;type:refund_status;not null;index"`
	InitiatedBy uuid.UUID          `gorm:"column:initiated_by;type:uuid;not null"`
	ApprovedBy  *uuid.UUID         `gorm:"column:approved_by;type:uuid"`
	ApprovedAt  *time.Time         `gorm:"column:approved_at"`
	ProcessedBy *uuid.UUID         `gorm:"column:processed_by;type:uuid"`
	ProcessedAt *time.Time         `gorm:"column:processed_at"`
	CompletedAt *time.Time         `gorm:"column:completed_at"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Refund) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// RefundProof is the operator's evidence that the money was sent back.
type RefundProof struct {
	ID                   uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	RefundID             uuid.UUID          `gorm:"column:refund_id;type:uuid;not null;uniqueIndex:refund_proofs_refund_id_key"`
	UploadedBy           uuid.UUID          `gorm:"column:uploaded_by;type:uuid;not null"`
	Method               enums.RefundMethod `gorm:"column:method;type:refund_method;not null"`
	EvidenceRef          string             `gorm:"column:evidence_ref;not null"`
	TransactionReference *string            `gorm:"column:transaction_reference"`
	Notes                *string            `gorm:"column:notes"`
	CreatedAt            time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (p *RefundProof) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// RefundReceipt is issued exactly once when a refund completes.
type RefundReceipt struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Number      string             `gorm:"column:number;not null;uniqueIndex:refund_receipts_number_key"`
	RefundID    uuid.UUID          `gorm:"column:refund_id;type:uuid;not null;uniqueIndex:refund_receipts_refund_id_key"`
	AmountCents int64              `gorm:"column:amount_cents;not null"`
	Method      enums.RefundMethod `gorm:"column:method;type:refund_method;not null"`
	IssuedAt    time.Time          `gorm:"column:issued_at;not null"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (r *RefundReceipt) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
