package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/config"
	"github.com/equiptrade/fulfillment-backend/pkg/db"
	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
	"github.com/equiptrade/fulfillment-backend/pkg/reference"
)

const createSavepoint = "invoice_create"

// Ledger owns the single invoice attached to a confirmed order. Status writes
// are only issued by the payment and refund workflows.
type Ledger struct {
	repo    *Repository
	billing config.BillingConfig
	now     func() time.Time
}

// NewLedger builds a ledger over repo.
func NewLedger(repo *Repository, billing config.BillingConfig) (*Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	return &Ledger{repo: repo, billing: billing, now: time.Now}, nil
}

// CreateFor returns the order's invoice, creating it in unpaid state when
// none exists. The bool reports whether this call created it.
func (l *Ledger) CreateFor(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Invoice, bool, error) {
	if tx == nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeInternal, "invoice creation requires a transaction")
	}
	if order == nil || order.ID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	repo := l.repo.WithTx(tx)

	existing, err := repo.FindByOrderID(ctx, order.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup invoice")
	}

	invoice := &models.Invoice{
		Number:        reference.New(reference.Invoice),
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		Status:        enums.InvoiceStatusUnpaid,
		SubtotalCents: order.SubtotalCents,
		TaxCents:      order.TaxCents,
		ShippingCents: order.ShippingCents,
		TotalCents:    order.TotalCents,
		Currency:      l.currency(),
		IssuedAt:      l.now().UTC(),
	}
	if instructions := strings.TrimSpace(l.billing.PaymentInstructions); instructions != "" {
		invoice.PaymentInstructions = &instructions
	}

	if err := tx.SavePoint(createSavepoint).Error; err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invoice savepoint")
	}
	if err := repo.Create(ctx, invoice); err != nil {
		if !db.IsUniqueViolation(err, "invoices_order_id_key") && !db.IsUniqueViolation(err, "invoices.order_id") {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
		}
		if rbErr := tx.RollbackTo(createSavepoint).Error; rbErr != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, rbErr, "rollback invoice savepoint")
		}
		winner, findErr := repo.FindByOrderID(ctx, order.ID)
		if findErr != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "reload invoice")
		}
		return winner, false, nil
	}
	return invoice, true, nil
}

// Find reads an invoice inside tx without locking it.
func (l *Ledger) Find(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Invoice, error) {
	inv, err := l.repo.WithTx(tx).FindByID(ctx, id)
	return inv, mapFindErr(err)
}

// FindForOrder reads the order's invoice inside tx, returning nil when the
// order has not been confirmed yet.
func (l *Ledger) FindForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Invoice, error) {
	inv, err := l.repo.WithTx(tx).FindByOrderID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return inv, mapFindErr(err)
}

// LockForUpdate loads and locks an invoice by id.
func (l *Ledger) LockForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Invoice, error) {
	inv, err := l.repo.WithTx(tx).LockByID(ctx, id)
	return inv, mapFindErr(err)
}

// LockForOrder loads and locks the invoice attached to orderID.
func (l *Ledger) LockForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Invoice, error) {
	inv, err := l.repo.WithTx(tx).LockByOrderID(ctx, orderID)
	return inv, mapFindErr(err)
}

// MarkPaymentSubmitted records that a proof awaits review.
func (l *Ledger) MarkPaymentSubmitted(ctx context.Context, tx *gorm.DB, inv *models.Invoice) error {
	if !inv.Status.AcceptsPaymentProof() {
		return stateConflict(inv, "cannot accept a payment proof")
	}
	return l.setStatus(ctx, tx, inv, enums.InvoiceStatusPaymentSubmitted, nil)
}

// MarkPaymentRejected reverts the invoice so the customer can resubmit.
func (l *Ledger) MarkPaymentRejected(ctx context.Context, tx *gorm.DB, inv *models.Invoice) error {
	if inv.Status != enums.InvoiceStatusPaymentSubmitted {
		return stateConflict(inv, "has no payment under review")
	}
	return l.setStatus(ctx, tx, inv, enums.InvoiceStatusPaymentRejected, nil)
}

// MarkPaid records the verified payment.
func (l *Ledger) MarkPaid(ctx context.Context, tx *gorm.DB, inv *models.Invoice, paidAt time.Time) error {
	if inv.Status != enums.InvoiceStatusPaymentSubmitted {
		return stateConflict(inv, "cannot be marked paid")
	}
	paidAt = paidAt.UTC()
	if err := l.setStatus(ctx, tx, inv, enums.InvoiceStatusPaid, map[string]any{"paid_at": paidAt}); err != nil {
		return err
	}
	inv.PaidAt = &paidAt
	return nil
}

// MarkRefunded records that the invoice's payment was returned.
func (l *Ledger) MarkRefunded(ctx context.Context, tx *gorm.DB, inv *models.Invoice, refundedAt time.Time) error {
	if inv.Status != enums.InvoiceStatusPaid {
		return stateConflict(inv, "cannot be refunded")
	}
	refundedAt = refundedAt.UTC()
	if err := l.setStatus(ctx, tx, inv, enums.InvoiceStatusRefunded, map[string]any{"refunded_at": refundedAt}); err != nil {
		return err
	}
	inv.RefundedAt = &refundedAt
	return nil
}

// Get returns an invoice by id.
func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv, err := l.repo.FindByID(ctx, id)
	return inv, mapFindErr(err)
}

// GetByOrder returns the invoice attached to orderID.
func (l *Ledger) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	inv, err := l.repo.FindByOrderID(ctx, orderID)
	return inv, mapFindErr(err)
}

// ListForCustomer pages through a customer's invoices, newest first.
func (l *Ledger) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*pagination.Page[models.Invoice], error) {
	query := listParams{CustomerID: &customerID, Limit: pagination.LimitWithBuffer(params.Limit)}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	rows, err := l.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	page := pagination.Trim(rows, params.Limit, func(inv models.Invoice) pagination.Cursor {
		return pagination.Cursor{CreatedAt: inv.CreatedAt, ID: inv.ID}
	})
	return &page, nil
}

func (l *Ledger) setStatus(ctx context.Context, tx *gorm.DB, inv *models.Invoice, status enums.InvoiceStatus, extra map[string]any) error {
	updates := map[string]any{"status": status}
	for k, v := range extra {
		updates[k] = v
	}
	if err := l.repo.WithTx(tx).Update(ctx, inv.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice status")
	}
	inv.Status = status
	return nil
}

func (l *Ledger) currency() string {
	if c := strings.TrimSpace(l.billing.Currency); c != "" {
		return c
	}
	return "DZD"
}

func stateConflict(inv *models.Invoice, what string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("invoice %s is %s and %s", inv.Number, inv.Status, what)).
		WithDetails(map[string]any{"invoice_id": inv.ID, "status": inv.Status})
}

func mapFindErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
}
