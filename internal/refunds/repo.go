package refunds

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
)

// Repository persists refunds, their proofs and receipts.
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

func (r *Repository) Create(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Refund, error) {
	var refund models.Refund
	if err := r.db.WithContext(ctx).First(&refund, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &refund, nil
}

// LockByID selects the refund FOR UPDATE.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Refund, error) {
	var refund models.Refund
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&refund, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Refund{}).Where("id = ?", id).Updates(updates).Error
}

// SumCommitted totals refunds against the invoice that were not rejected.
func (r *Repository) SumCommitted(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Refund{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("invoice_id = ? AND status <> ?", invoiceID, enums.RefundStatusRejected).
		Scan(&total).Error
	return total, err
}

func (r *Repository) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Refund, error) {
	var rows []models.Refund
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

type listParams struct {
	Status *enums.RefundStatus
	Limit  int
	Cursor *pagination.Cursor
}

func (r *Repository) List(ctx context.Context, params listParams) ([]models.Refund, error) {
	query := r.db.WithContext(ctx).Model(&models.Refund{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	var rows []models.Refund
	err := query.Scopes(pagination.Keyset(params.Cursor, params.Limit)).Find(&rows).Error
	return rows, err
}

// FindComplaint reads the complaint a refund may be linked to.
func (r *Repository) FindComplaint(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	var complaint models.Complaint
	if err := r.db.WithContext(ctx).First(&complaint, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *Repository) CreateProof(ctx context.Context, proof *models.RefundProof) error {
	return r.db.WithContext(ctx).Create(proof).Error
}

func (r *Repository) FindProof(ctx context.Context, refundID uuid.UUID) (*models.RefundProof, error) {
	return findOptional[models.RefundProof](ctx, r.db, "refund_id = ?", refundID)
}

func (r *Repository) FindReceipt(ctx context.Context, refundID uuid.UUID) (*models.RefundReceipt, error) {
	return findOptional[models.RefundReceipt](ctx, r.db, "refund_id = ?", refundID)
}

func (r *Repository) CreateReceipt(ctx context.Context, receipt *models.RefundReceipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func findOptional[T any](ctx context.Context, db *gorm.DB, query string, args ...any) (*T, error) {
	var row T
	err := db.WithContext(ctx).Where(query, args...).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
