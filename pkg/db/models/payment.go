package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/enums"
)

// PaymentProof is customer-submitted evidence of an out-of-band payment.
// ReviewedAt is nil while the proof waits for an operator; at most one such
// pending proof may exist per invoice.
type PaymentProof struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceID            uuid.UUID           `gorm:"column:invoice_id;type:uuid;not null;index;uniqueIndex:payment_proofs_one_pending,where:reviewed_at IS NULL"`
	SubmittedBy          uuid.UUID           `gorm:"column:submitted_by;type:uuid;not null"`
	Method               enums.PaymentMethod `gorm:"column:method;type:payment_method;not null"`
	EvidenceRef          string              `gorm:"column:evidence_ref;not null"`
	TransactionReference *string             `gorm:"column:transaction_reference"`
	Notes                *string             `gorm:"column:notes"`
	Verified             bool                `gorm:"column:verified;not null"`
	ReviewedBy           *uuid.UUID          `gorm:"column:reviewed_by;type:uuid"`
	ReviewedAt           *time.Time          `gorm:"column:reviewed_at"`
	RejectionReason      *string             `gorm:"column:rejection_reason"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PaymentProof) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// IsPending reports whether the proof still awaits operator review.
func (p PaymentProof) IsPending() bool {
	return p.ReviewedAt == nil
}

// PaymentReceipt is issued exactly once when an invoice's payment is verified.
type PaymentReceipt struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Number      string              `gorm:"column:number;not null;uniqueIndex:payment_receipts_number_key"`
	InvoiceID   uuid.UUID           `gorm:"column:invoice_id;type:uuid;not null;uniqueIndex:payment_receipts_invoice_id_key"`
	ProofID     uuid.UUID           `gorm:"column:proof_id;type:uuid;not null"`
	AmountCents int64               `gorm:"column:amount_cents;not null"`
	Method      enums.PaymentMethod `gorm:"column:method;type:payment_method;not null"`
	IssuedBy    uuid.UUID           `gorm:"column:issued_by;type:uuid;not null"`
	PaidAt      time.Time           `gorm:"column:paid_at;not null"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (r *PaymentReceipt) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
