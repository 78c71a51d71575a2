// Package catalog is the minimal product collaborator used by the order
// lifecycle: availability checks, stock reservation and shipping options.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
)

// Line identifies a quantity of a product or one of its variants.
type Line struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// ReservedLine carries the catalog names captured at reservation time.
type ReservedLine struct {
	Line
	ProductName string
	VariantName *string
}

// Catalog reads and adjusts catalog stock on the caller's transaction.
type Catalog struct {
	db *gorm.DB
}

// New builds a Catalog bound to db for non-transactional reads.
func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// Reserve decrements stock for every line or fails the whole batch with a
// validation error naming the first unavailable line.
func (c *Catalog) Reserve(ctx context.Context, tx *gorm.DB, lines []Line) ([]ReservedLine, error) {
	out := make([]ReservedLine, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, unavailable(line, "quantity must be positive")
		}
		product, err := c.activeProduct(ctx, tx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, unavailable(line, "product not available")
		}
		reserved := ReservedLine{Line: line, ProductName: product.Name}

		if line.VariantID != nil {
			variant, err := c.activeVariant(ctx, tx, *line.VariantID, line.ProductID)
			if err != nil {
				return nil, err
			}
			if variant == nil {
				return nil, unavailable(line, "variant not available")
			}
			name := variant.Name
			reserved.VariantName = &name
			ok, err := decrement(ctx, tx, &models.ProductVariant{}, variant.ID, line.Quantity)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, unavailable(line, "insufficient stock")
			}
		} else {
			ok, err := decrement(ctx, tx, &models.Product{}, product.ID, line.Quantity)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, unavailable(line, "insufficient stock")
			}
		}
		out = append(out, reserved)
	}
	return out, nil
}

// Release returns previously reserved stock.
func (c *Catalog) Release(ctx context.Context, tx *gorm.DB, lines []Line) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		var target any = &models.Product{}
		id := line.ProductID
		if line.VariantID != nil {
			target = &models.ProductVariant{}
			id = *line.VariantID
		}
		err := tx.WithContext(ctx).
			Model(target).
			Where("id = ?", id).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", line.Quantity)).Error
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release stock")
		}
	}
	return nil
}

// ShippingOption returns an active shipping type or a validation error.
func (c *Catalog) ShippingOption(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ShippingType, error) {
	conn := c.db
	if tx != nil {
		conn = tx
	}
	var st models.ShippingType
	err := conn.WithContext(ctx).First(&st, "id = ? AND is_active = ?", id, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping option not available").
			WithDetails(map[string]any{"shipping_option_id": id})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping option")
	}
	return &st, nil
}

// ShippingOptions lists active shipping types in display order.
func (c *Catalog) ShippingOptions(ctx context.Context) ([]models.ShippingType, error) {
	var rows []models.ShippingType
	err := c.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC, name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping options")
	}
	return rows, nil
}

func (c *Catalog) activeProduct(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := tx.WithContext(ctx).First(&p, "id = ? AND is_active = ?", id, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &p, nil
}

func (c *Catalog) activeVariant(ctx context.Context, tx *gorm.DB, id, productID uuid.UUID) (*models.ProductVariant, error) {
	var v models.ProductVariant
	err := tx.WithContext(ctx).First(&v, "id = ? AND product_id = ? AND is_active = ?", id, productID, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	return &v, nil
}

// decrement subtracts qty when enough stock remains. The conditional update
// keeps concurrent reservations from overselling.
func decrement(ctx context.Context, tx *gorm.DB, model any, id uuid.UUID, qty int) (bool, error) {
	res := tx.WithContext(ctx).
		Model(model).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
	}
	return res.RowsAffected == 1, nil
}

func unavailable(line Line, reason string) error {
	details := map[string]any{"product_id": line.ProductID, "reason": reason}
	if line.VariantID != nil {
		details["variant_id"] = *line.VariantID
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item unavailable: %s", reason)).WithDetails(details)
}
