package complaints

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
)

// Repository persists complaints and the reasons customers pick from.
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

func (r *Repository) Create(ctx context.Context, complaint *models.Complaint) error {
	return r.db.WithContext(ctx).Create(complaint).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	var complaint models.Complaint
	if err := r.db.WithContext(ctx).First(&complaint, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &complaint, nil
}

// LockByID selects the complaint FOR UPDATE.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	var complaint models.Complaint
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&complaint, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Complaint{}).Where("id = ?", id).Updates(updates).Error
}

type listParams struct {
	CustomerID *uuid.UUID
	Status     *enums.ComplaintStatus
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *Repository) List(ctx context.Context, params listParams) ([]models.Complaint, error) {
	query := r.db.WithContext(ctx).Model(&models.Complaint{})
	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	var rows []models.Complaint
	err := query.Scopes(pagination.Keyset(params.Cursor, params.Limit)).Find(&rows).Error
	return rows, err
}

func (r *Repository) CreateReason(ctx context.Context, reason *models.ComplaintReason) error {
	return r.db.WithContext(ctx).Create(reason).Error
}

func (r *Repository) FindReason(ctx context.Context, id uuid.UUID) (*models.ComplaintReason, error) {
	var reason models.ComplaintReason
	if err := r.db.WithContext(ctx).First(&reason, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reason, nil
}

func (r *Repository) UpdateReason(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.ComplaintReason{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repository) ListReasons(ctx context.Context, activeOnly bool) ([]models.ComplaintReason, error) {
	query := r.db.WithContext(ctx).Model(&models.ComplaintReason{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.ComplaintReason
	err := query.Order("display_order ASC, name ASC").Find(&rows).Error
	return rows, err
}
