package complaints

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
)

// ReasonInput creates or patches a complaint reason. Nil fields are left
// unchanged on update.
type ReasonInput struct {
	Name         *string
	Description  *string
	IsActive     *bool
	DisplayOrder *int
}

func (s *service) ListReasons(ctx context.Context, activeOnly bool) ([]models.ComplaintReason, error) {
	rows, err := s.repo.ListReasons(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list complaint reasons")
	}
	return rows, nil
}

func (s *service) CreateReason(ctx context.Context, input ReasonInput) (*models.ComplaintReason, error) {
	name := trimmed(input.Name)
	if name == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason name required")
	}
	reason := &models.ComplaintReason{
		Name:        *name,
		Description: trimmed(input.Description),
		IsActive:    true,
	}
	if input.IsActive != nil {
		reason.IsActive = *input.IsActive
	}
	if input.DisplayOrder != nil {
		reason.DisplayOrder = *input.DisplayOrder
	}
	if err := s.repo.CreateReason(ctx, reason); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create complaint reason")
	}
	return reason, nil
}

func (s *service) UpdateReason(ctx context.Context, id uuid.UUID, input ReasonInput) (*models.ComplaintReason, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = trimmed(input.Description)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.DisplayOrder != nil {
		updates["display_order"] = *input.DisplayOrder
	}

	var reason *models.ComplaintReason
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindReason(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "complaint reason not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load complaint reason")
		}
		if len(updates) > 0 {
			if err := repo.UpdateReason(ctx, id, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update complaint reason")
			}
		}
		var err error
		reason, err = repo.FindReason(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload complaint reason")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reason, nil
}
