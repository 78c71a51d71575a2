// Package refunds returns money to customers against paid invoices.
package refunds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/internal/notifications"
	"github.com/equiptrade/fulfillment-backend/internal/orders"
	"github.com/equiptrade/fulfillment-backend/pkg/config"
	"github.com/equiptrade/fulfillment-backend/pkg/db"
	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/money"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
	"github.com/equiptrade/fulfillment-backend/pkg/reference"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OrderLifecycle is the slice of the order service used to move orders.
type OrderLifecycle interface {
	LockForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	Transition(ctx context.Context, tx *gorm.DB, input orders.TransitionInput) error
}

// InvoiceLedger is the slice of the ledger this workflow writes through.
type InvoiceLedger interface {
	LockForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Invoice, error)
	MarkRefunded(ctx context.Context, tx *gorm.DB, inv *models.Invoice, refundedAt time.Time) error
}

// Notifier applies notification events inside the caller's transaction.
type Notifier interface {
	Apply(ctx context.Context, tx *gorm.DB, events []notifications.Event) error
}

// InitiateInput opens a refund for an order.
type InitiateInput struct {
	OrderID     uuid.UUID
	OperatorID  uuid.UUID
	AmountCents int64
	Reason      string
	ComplaintID *uuid.UUID
}

// UploadProofInput records how the money was returned.
type UploadProofInput struct {
	RefundID             uuid.UUID
	OperatorID           uuid.UUID
	Method               enums.RefundMethod
	EvidenceRef          string
	TransactionReference *string
	Notes                *string
}

// CompletionResult carries the documents produced when a refund completes.
type CompletionResult struct {
	Refund  *models.Refund
	Proof   *models.RefundProof
	Receipt *models.RefundReceipt
}

// ListParams filters the operator refund listing.
type ListParams struct {
	Status     *enums.RefundStatus
	Pagination pagination.Params
}

// Service is the refund workflow.
type Service interface {
	Initiate(ctx context.Context, input InitiateInput) (*models.Refund, error)
	UploadProof(ctx context.Context, input UploadProofInput) (*CompletionResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Refund, error)
	GetReceipt(ctx context.Context, refundID uuid.UUID) (*models.RefundReceipt, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Refund, error)
	List(ctx context.Context, params ListParams) (*pagination.Page[models.Refund], error)
}

// ServiceParams wires the refund workflow.
type ServiceParams struct {
	Repository *Repository
	Tx         txRunner
	Orders     OrderLifecycle
	Invoices   InvoiceLedger
	Notifier   Notifier
	Billing    config.BillingConfig
}

type service struct {
	repo     *Repository
	tx       txRunner
	orders   OrderLifecycle
	invoices InvoiceLedger
	notifier Notifier
	currency string
	now      func() time.Time
}

// NewService builds the refund workflow.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("refunds repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order lifecycle required")
	}
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoice ledger required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	currency := strings.TrimSpace(params.Billing.Currency)
	if currency == "" {
		currency = "DZD"
	}
	return &service{
		repo:     params.Repository,
		tx:       params.Tx,
		orders:   params.Orders,
		invoices: params.Invoices,
		notifier: params.Notifier,
		currency: currency,
		now:      time.Now,
	}, nil
}

func refundable(status enums.OrderStatus) bool {
	switch status {
	case enums.OrderStatusPaid, enums.OrderStatusProcessing, enums.OrderStatusShipped, enums.OrderStatusDelivered:
		return true
	default:
		return false
	}
}

func (s *service) Initiate(ctx context.Context, input InitiateInput) (*models.Refund, error) {
	if input.OperatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator identity missing")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund reason required")
	}

	var refund *models.Refund
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.LockForUpdate(ctx, tx, input.OrderID)
		if err != nil {
			return err
		}
		if !refundable(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order %s is %s and cannot be refunded", order.Reference, order.Status)).
				WithDetails(map[string]any{"order_id": order.ID, "status": order.Status})
		}
		invoice, err := s.invoices.LockForOrder(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if invoice.Status != enums.InvoiceStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("invoice %s is %s and cannot be refunded", invoice.Number, invoice.Status)).
				WithDetails(map[string]any{"invoice_id": invoice.ID, "status": invoice.Status})
		}

		repo := s.repo.WithTx(tx)
		if input.ComplaintID != nil {
			complaint, err := repo.FindComplaint(ctx, *input.ComplaintID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "complaint not found")
			}
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load complaint")
			}
			if complaint.OrderID != order.ID {
				return pkgerrors.New(pkgerrors.CodeValidation, "complaint does not belong to order")
			}
		}

		committed, err := repo.SumCommitted(ctx, invoice.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum refunds")
		}
		if remaining := invoice.TotalCents - committed; input.AmountCents > remaining {
			return pkgerrors.New(pkgerrors.CodeValidation, "refund exceeds the refundable balance").
				WithDetails(map[string]any{"amount_cents": input.AmountCents, "refundable_cents": remaining})
		}

		now := s.now().UTC()
		refund = &models.Refund{
			Reference:   reference.New(reference.Refund),
			OrderID:     order.ID,
			InvoiceID:   invoice.ID,
			ComplaintID: input.ComplaintID,
			AmountCents: input.AmountCents,
			Reason:      reason,
			Status:      enums.RefundStatusApproved,
			InitiatedBy: input.OperatorID,
			ApprovedBy:  &input.OperatorID,
			ApprovedAt:  &now,
		}
		if err := repo.Create(ctx, refund); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund")
		}
		if err := s.orders.Transition(ctx, tx, orders.TransitionInput{
			Order:   order,
			To:      enums.OrderStatusRefundPending,
			ActorID: input.OperatorID,
			Role:    enums.UserRoleOperator,
		}); err != nil {
			return err
		}

		refs := refundRefs(refund)
		amount := money.Format(refund.AmountCents, s.currency)
		return s.notifier.Apply(ctx, tx, []notifications.Event{
			notifications.ToUser(order.CustomerID, notifications.Notice{
				Kind:    enums.NotificationRefundInitiated,
				Title:   "Refund approved",
				Message: fmt.Sprintf("A refund of %s for order %s has been approved and will be sent shortly.", amount, order.Reference),
				Refs:    refs,
			}),
			notifications.ToOperators(notifications.Notice{
				Kind:    enums.NotificationRefundInitiated,
				Title:   "Refund to send",
				Message: fmt.Sprintf("Refund %s of %s for order %s awaits its transfer proof.", refund.Reference, amount, order.Reference),
				Refs:    refs,
			}),
		})
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

func (s *service) UploadProof(ctx context.Context, input UploadProofInput) (*CompletionResult, error) {
	if input.OperatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator identity missing")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid refund method")
	}
	evidence := strings.TrimSpace(input.EvidenceRef)
	if evidence == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund evidence required")
	}

	result := &CompletionResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		snapshot, err := repo.FindByID(ctx, input.RefundID)
		if err != nil {
			return mapFindErr(err)
		}
		order, err := s.orders.LockForUpdate(ctx, tx, snapshot.OrderID)
		if err != nil {
			return err
		}
		invoice, err := s.invoices.LockForOrder(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		refund, err := repo.LockByID(ctx, snapshot.ID)
		if err != nil {
			return mapFindErr(err)
		}
		if refund.Status != enums.RefundStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("refund %s is %s", refund.Reference, refund.Status)).
				WithDetails(map[string]any{"refund_id": refund.ID, "status": refund.Status})
		}

		proof := &models.RefundProof{
			RefundID:             refund.ID,
			UploadedBy:           input.OperatorID,
			Method:               input.Method,
			EvidenceRef:          evidence,
			TransactionReference: trimmed(input.TransactionReference),
			Notes:                trimmed(input.Notes),
		}
		if err := repo.CreateProof(ctx, proof); err != nil {
			if db.IsUniqueViolation(err, "refund_proofs_refund_id_key") || db.IsUniqueViolation(err, "refund_proofs.refund_id") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "refund proof already uploaded")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund proof")
		}

		now := s.now().UTC()
		if err := repo.Update(ctx, refund.ID, map[string]any{
			"status":       enums.RefundStatusCompleted,
			"processed_by": input.OperatorID,
			"processed_at": now,
			"completed_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete refund")
		}
		refund.Status = enums.RefundStatusCompleted
		refund.ProcessedBy = &input.OperatorID
		refund.ProcessedAt = &now
		refund.CompletedAt = &now

		if err := s.orders.Transition(ctx, tx, orders.TransitionInput{
			Order:   order,
			To:      enums.OrderStatusRefunded,
			ActorID: input.OperatorID,
			Role:    enums.UserRoleOperator,
		}); err != nil {
			return err
		}
		if err := s.invoices.MarkRefunded(ctx, tx, invoice, now); err != nil {
			return err
		}
		receipt, err := s.issueReceipt(ctx, repo, refund, input.Method, now)
		if err != nil {
			return err
		}

		result.Refund = refund
		result.Proof = proof
		result.Receipt = receipt
		return s.notifier.Apply(ctx, tx, []notifications.Event{
			notifications.ToUser(order.CustomerID, notifications.Notice{
				Kind:  enums.NotificationRefundCompleted,
				Title: "Refund sent",
				Message: fmt.Sprintf("Your refund of %s for order %s was sent. Receipt %s has been issued.",
					money.Format(refund.AmountCents, s.currency), order.Reference, receipt.Number),
				Refs: refundRefs(refund),
			}),
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) issueReceipt(ctx context.Context, repo *Repository, refund *models.Refund, method enums.RefundMethod, at time.Time) (*models.RefundReceipt, error) {
	existing, err := repo.FindReceipt(ctx, refund.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup refund receipt")
	}
	if existing != nil {
		return existing, nil
	}
	receipt := &models.RefundReceipt{
		Number:      reference.New(reference.RefundReceipt),
		RefundID:    refund.ID,
		AmountCents: refund.AmountCents,
		Method:      method,
		IssuedAt:    at,
	}
	if err := repo.CreateReceipt(ctx, receipt); err != nil {
		if db.IsUniqueViolation(err, "refund_receipts_refund_id_key") || db.IsUniqueViolation(err, "refund_receipts.refund_id") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "refund receipt already issued")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund receipt")
	}
	return receipt, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Refund, error) {
	refund, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFindErr(err)
	}
	return refund, nil
}

func (s *service) GetReceipt(ctx context.Context, refundID uuid.UUID) (*models.RefundReceipt, error) {
	receipt, err := s.repo.FindReceipt(ctx, refundID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund receipt")
	}
	if receipt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "refund receipt not found")
	}
	return receipt, nil
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Refund, error) {
	rows, err := s.repo.ListForOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refunds")
	}
	return rows, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Page[models.Refund], error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	cursor, err := pagination.ParseCursor(params.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, listParams{
		Status: params.Status,
		Limit:  pagination.LimitWithBuffer(params.Pagination.Limit),
		Cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refunds")
	}
	page := pagination.Trim(rows, params.Pagination.Limit, func(r models.Refund) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	return &page, nil
}

func refundRefs(refund *models.Refund) notifications.Refs {
	refs := notifications.Refs{
		OrderID:   notifications.Ref(refund.OrderID),
		InvoiceID: notifications.Ref(refund.InvoiceID),
		RefundID:  notifications.Ref(refund.ID),
	}
	if refund.ComplaintID != nil {
		refs.ComplaintID = notifications.Ref(*refund.ComplaintID)
	}
	return refs
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func mapFindErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "refund not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund")
}
