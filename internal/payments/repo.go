package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
)

// Repository persists payment proofs and receipts.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a repository to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository that runs on tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) CreateProof(ctx context.Context, proof *models.PaymentProof) error {
	return r.db.WithContext(ctx).Create(proof).Error
}

func (r *Repository) FindProof(ctx context.Context, id uuid.UUID) (*models.PaymentProof, error) {
	var proof models.PaymentProof
	if err := r.db.WithContext(ctx).First(&proof, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &proof, nil
}

// LockProof selects the proof FOR UPDATE.
func (r *Repository) LockProof(ctx context.Context, id uuid.UUID) (*models.PaymentProof, error) {
	var proof models.PaymentProof
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&proof, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &proof, nil
}

// FindPendingProof returns the invoice's unreviewed proof, or nil.
func (r *Repository) FindPendingProof(ctx context.Context, invoiceID uuid.UUID) (*models.PaymentProof, error) {
	var proof models.PaymentProof
	err := r.db.WithContext(ctx).
		First(&proof, "invoice_id = ? AND reviewed_at IS NULL", invoiceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &proof, nil
}

func (r *Repository) UpdateProof(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.PaymentProof{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repository) ListProofs(ctx context.Context, invoiceID uuid.UUID) ([]models.PaymentProof, error) {
	var rows []models.PaymentProof
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// ListPending pages through proofs still waiting for review.
func (r *Repository) ListPending(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.PaymentProof, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentProof{}).Where("reviewed_at IS NULL")
	var rows []models.PaymentProof
	err := query.Scopes(pagination.Keyset(cursor, limit)).Find(&rows).Error
	return rows, err
}

// FindReceiptByInvoice returns the invoice's receipt, or nil.
func (r *Repository) FindReceiptByInvoice(ctx context.Context, invoiceID uuid.UUID) (*models.PaymentReceipt, error) {
	var receipt models.PaymentReceipt
	err := r.db.WithContext(ctx).First(&receipt, "invoice_id = ?", invoiceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *Repository) CreateReceipt(ctx context.Context, receipt *models.PaymentReceipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}
