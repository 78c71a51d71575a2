// Package payments verifies out-of-band payment proofs against invoices and
// issues the payment receipt.
package payments

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
	"github.com/equiptrade/fulfillment-backend/pkg/db"
	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
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

// InvoiceLedger is the slice of the ledger this service writes through.
type InvoiceLedger interface {
	Find(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Invoice, error)
	LockForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Invoice, error)
	MarkPaymentSubmitted(ctx context.Context, tx *gorm.DB, inv *models.Invoice) error
	MarkPaymentRejected(ctx context.Context, tx *gorm.DB, inv *models.Invoice) error
	MarkPaid(ctx context.Context, tx *gorm.DB, inv *models.Invoice, paidAt time.Time) error
}

// Notifier applies notification events inside the caller's transaction.
type Notifier interface {
	Apply(ctx context.Context, tx *gorm.DB, events []notifications.Event) error
}

// SubmitProofInput is a customer's evidence of payment for an invoice.
type SubmitProofInput struct {
	InvoiceID            uuid.UUID
	CustomerID           uuid.UUID
	Method               enums.PaymentMethod
	EvidenceRef          string
	TransactionReference *string
	Notes                *string
}

// VerifyInput is an operator decision on a pending proof.
type VerifyInput struct {
	ProofID         uuid.UUID
	OperatorID      uuid.UUID
	Approve         bool
	RejectionReason string
}

// VerifyResult carries the documents touched by a decision. Receipt is nil
// when the proof was rejected.
type VerifyResult struct {
	Proof   *models.PaymentProof
	Invoice *models.Invoice
	Receipt *models.PaymentReceipt
}

// Service verifies payment proofs.
type Service interface {
	SubmitProof(ctx context.Context, input SubmitProofInput) (*models.PaymentProof, error)
	Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error)
	GetProof(ctx context.Context, id uuid.UUID) (*models.PaymentProof, error)
	ListProofs(ctx context.Context, invoiceID uuid.UUID) ([]models.PaymentProof, error)
	ListPending(ctx context.Context, params pagination.Params) (*pagination.Page[models.PaymentProof], error)
	GetReceipt(ctx context.Context, invoiceID uuid.UUID) (*models.PaymentReceipt, error)
}

// ServiceParams wires the verification service.
type ServiceParams struct {
	Repository *Repository
	Tx         txRunner
	Orders     OrderLifecycle
	Invoices   InvoiceLedger
	Notifier   Notifier
}

type service struct {
	repo     *Repository
	tx       txRunner
	orders   OrderLifecycle
	invoices InvoiceLedger
	notifier Notifier
	now      func() time.Time
}

// NewService builds the payment verification service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("payments repository required")
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
	return &service{
		repo:     params.Repository,
		tx:       params.Tx,
		orders:   params.Orders,
		invoices: params.Invoices,
		notifier: params.Notifier,
		now:      time.Now,
	}, nil
}

func (s *service) SubmitProof(ctx context.Context, input SubmitProofInput) (*models.PaymentProof, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	evidence := strings.TrimSpace(input.EvidenceRef)
	if evidence == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment evidence required")
	}

	var proof *models.PaymentProof
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		snapshot, err := s.invoices.Find(ctx, tx, input.InvoiceID)
		if err != nil {
			return err
		}
		if snapshot.CustomerID != input.CustomerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "invoice does not belong to customer")
		}
		order, err := s.orders.LockForUpdate(ctx, tx, snapshot.OrderID)
		if err != nil {
			return err
		}
		invoice, err := s.invoices.LockForUpdate(ctx, tx, snapshot.ID)
		if err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		pending, err := repo.FindPendingProof(ctx, invoice.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup pending proof")
		}
		if pending != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "a payment proof is already awaiting review").
				WithDetails(map[string]any{"invoice_id": invoice.ID, "proof_id": pending.ID})
		}
		if err := s.invoices.MarkPaymentSubmitted(ctx, tx, invoice); err != nil {
			return err
		}

		proof = &models.PaymentProof{
			InvoiceID:            invoice.ID,
			SubmittedBy:          input.CustomerID,
			Method:               input.Method,
			EvidenceRef:          evidence,
			TransactionReference: trimmed(input.TransactionReference),
			Notes:                trimmed(input.Notes),
		}
		if err := repo.CreateProof(ctx, proof); err != nil {
			if db.IsUniqueViolation(err, "payment_proofs_one_pending") || db.IsUniqueViolation(err, "payment_proofs.invoice_id") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a payment proof is already awaiting review")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment proof")
		}

		if err := s.orders.Transition(ctx, tx, orders.TransitionInput{
			Order:   order,
			To:      enums.OrderStatusPaymentUnderReview,
			ActorID: input.CustomerID,
			Role:    enums.UserRoleCustomer,
		}); err != nil {
			return err
		}

		refs := notifications.Refs{OrderID: notifications.Ref(order.ID), InvoiceID: notifications.Ref(invoice.ID)}
		return s.notifier.Apply(ctx, tx, []notifications.Event{
			notifications.ToUser(input.CustomerID, notifications.Notice{
				Kind:    enums.NotificationPaymentSubmitted,
				Title:   "Payment proof received",
				Message: fmt.Sprintf("We received your payment proof for invoice %s and will review it shortly.", invoice.Number),
				Refs:    refs,
			}),
			notifications.ToOperators(notifications.Notice{
				Kind:    enums.NotificationPaymentSubmitted,
				Title:   "Payment proof to review",
				Message: fmt.Sprintf("A %s payment proof was submitted for invoice %s (order %s).", input.Method, invoice.Number, order.Reference),
				Refs:    refs,
			}),
		})
	})
	if err != nil {
		return nil, err
	}
	return proof, nil
}

func (s *service) Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error) {
	if input.OperatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator identity missing")
	}
	reason := strings.TrimSpace(input.RejectionReason)
	if !input.Approve && reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}

	result := &VerifyResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		snapshot, err := repo.FindProof(ctx, input.ProofID)
		if err != nil {
			return mapFindErr(err)
		}
		invoiceSnapshot, err := s.invoices.Find(ctx, tx, snapshot.InvoiceID)
		if err != nil {
			return err
		}

		// Lock order, invoice, proof in the same sequence as SubmitProof.
		order, err := s.orders.LockForUpdate(ctx, tx, invoiceSnapshot.OrderID)
		if err != nil {
			return err
		}
		invoice, err := s.invoices.LockForUpdate(ctx, tx, invoiceSnapshot.ID)
		if err != nil {
			return err
		}
		proof, err := repo.LockProof(ctx, snapshot.ID)
		if err != nil {
			return mapFindErr(err)
		}
		if !proof.IsPending() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment proof was already reviewed").
				WithDetails(map[string]any{"proof_id": proof.ID, "verified": proof.Verified})
		}

		now := s.now().UTC()
		updates := map[string]any{
			"verified":    input.Approve,
			"reviewed_by": input.OperatorID,
			"reviewed_at": now,
		}
		if !input.Approve {
			updates["rejection_reason"] = reason
		}
		if err := repo.UpdateProof(ctx, proof.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment proof")
		}
		proof.Verified = input.Approve
		proof.ReviewedBy = &input.OperatorID
		proof.ReviewedAt = &now
		refs := notifications.Refs{OrderID: notifications.Ref(order.ID), InvoiceID: notifications.Ref(invoice.ID)}
		result.Proof = proof
		result.Invoice = invoice

		if !input.Approve {
			proof.RejectionReason = &reason
			if err := s.invoices.MarkPaymentRejected(ctx, tx, invoice); err != nil {
				return err
			}
			return s.notifier.Apply(ctx, tx, []notifications.Event{
				notifications.ToUser(order.CustomerID, notifications.Notice{
					Kind:    enums.NotificationPaymentRejected,
					Title:   "Payment proof rejected",
					Message: fmt.Sprintf("Your payment proof for invoice %s was rejected: %s. Please submit a new proof.", invoice.Number, reason),
					Refs:    refs,
				}),
			})
		}

		if err := s.invoices.MarkPaid(ctx, tx, invoice, now); err != nil {
			return err
		}
		if err := s.orders.Transition(ctx, tx, orders.TransitionInput{
			Order:   order,
			To:      enums.OrderStatusPaid,
			ActorID: input.OperatorID,
			Role:    enums.UserRoleOperator,
		}); err != nil {
			return err
		}
		receipt, err := s.issueReceipt(ctx, repo, invoice, proof, input.OperatorID, now)
		if err != nil {
			return err
		}
		result.Receipt = receipt

		return s.notifier.Apply(ctx, tx, []notifications.Event{
			notifications.ToUser(order.CustomerID, notifications.Notice{
				Kind:    enums.NotificationPaymentVerified,
				Title:   "Payment confirmed",
				Message: fmt.Sprintf("Your payment for invoice %s was verified. Receipt %s has been issued.", invoice.Number, receipt.Number),
				Refs:    refs,
			}),
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// issueReceipt returns the invoice's receipt, creating it when absent.
func (s *service) issueReceipt(ctx context.Context, repo *Repository, invoice *models.Invoice, proof *models.PaymentProof, operatorID uuid.UUID, paidAt time.Time) (*models.PaymentReceipt, error) {
	existing, err := repo.FindReceiptByInvoice(ctx, invoice.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup payment receipt")
	}
	if existing != nil {
		return existing, nil
	}
	receipt := &models.PaymentReceipt{
		Number:      reference.New(reference.Receipt),
		InvoiceID:   invoice.ID,
		ProofID:     proof.ID,
		AmountCents: invoice.TotalCents,
		Method:      proof.Method,
		IssuedBy:    operatorID,
		PaidAt:      paidAt,
	}
	if err := repo.CreateReceipt(ctx, receipt); err != nil {
		if db.IsUniqueViolation(err, "payment_receipts_invoice_id_key") || db.IsUniqueViolation(err, "payment_receipts.invoice_id") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "payment receipt already issued")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment receipt")
	}
	return receipt, nil
}

func (s *service) GetProof(ctx context.Context, id uuid.UUID) (*models.PaymentProof, error) {
	proof, err := s.repo.FindProof(ctx, id)
	if err != nil {
		return nil, mapFindErr(err)
	}
	return proof, nil
}

func (s *service) ListProofs(ctx context.Context, invoiceID uuid.UUID) ([]models.PaymentProof, error) {
	rows, err := s.repo.ListProofs(ctx, invoiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment proofs")
	}
	return rows, nil
}

func (s *service) ListPending(ctx context.Context, params pagination.Params) (*pagination.Page[models.PaymentProof], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListPending(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending proofs")
	}
	page := pagination.Trim(rows, params.Limit, func(p models.PaymentProof) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return &page, nil
}

func (s *service) GetReceipt(ctx context.Context, invoiceID uuid.UUID) (*models.PaymentReceipt, error) {
	receipt, err := s.repo.FindReceiptByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment receipt")
	}
	if receipt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment receipt not found")
	}
	return receipt, nil
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
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment proof not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment proof")
}
