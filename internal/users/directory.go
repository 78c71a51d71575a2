package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/internal/notifications"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
)

// Directory answers the notification dispatcher's roster and contact lookups
// straight from the users table.
type Directory struct {
	repo *Repository
}

// NewDirectory builds a Directory over repo.
func NewDirectory(repo *Repository) *Directory {
	return &Directory{repo: repo}
}

// Operators returns every active operator at call time.
func (d *Directory) Operators(ctx context.Context, tx *gorm.DB) ([]notifications.Recipient, error) {
	rows, err := d.repo.ListActiveByRole(ctx, tx, enums.UserRoleOperator)
	if err != nil {
		return nil, err
	}
	out := make([]notifications.Recipient, 0, len(rows))
	for _, u := range rows {
		out = append(out, notifications.Recipient{ID: u.ID, Email: u.Email, Name: u.FullName()})
	}
	return out, nil
}

// Recipient returns contact details for id, or nil when the user is unknown
// or inactive.
func (d *Directory) Recipient(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*notifications.Recipient, error) {
	user, err := d.repo.FindByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}
	return &notifications.Recipient{ID: user.ID, Email: user.Email, Name: user.FullName()}, nil
}

var (
	_ notifications.OperatorRoster     = (*Directory)(nil)
	_ notifications.RecipientDirectory = (*Directory)(nil)
)
