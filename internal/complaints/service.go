// Package complaints handles post-delivery disputes raised by customers.
package complaints

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/internal/notifications"
	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
	"github.com/equiptrade/fulfillment-backend/pkg/reference"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OrderLocker loads and locks the order a complaint is filed against.
type OrderLocker interface {
	LockForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
}

// InvoiceFinder resolves the invoice a complaint is linked to.
type InvoiceFinder interface {
	FindForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Invoice, error)
}

// Notifier applies notification events inside the caller's transaction.
type Notifier interface {
	Apply(ctx context.Context, tx *gorm.DB, events []notifications.Event) error
}

// FileInput opens a complaint. Exactly one of ReasonID and CustomReason is
// expected; ReasonID wins when both are set.
type FileInput struct {
	OrderID      uuid.UUID
	CustomerID   uuid.UUID
	ReasonID     *uuid.UUID
	CustomReason *string
	Description  string
	Attachments  []string
}

// UpdateStatusInput is an operator decision on a complaint.
type UpdateStatusInput struct {
	ComplaintID     uuid.UUID
	OperatorID      uuid.UUID
	Status          enums.ComplaintStatus
	AdminNotes      *string
	ResolutionNotes *string
}

// ListParams filters the operator complaint listing.
type ListParams struct {
	Status     *enums.ComplaintStatus
	Pagination pagination.Params
}

// Service is the complaint workflow.
type Service interface {
	File(ctx context.Context, input FileInput) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Complaint, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	GetForCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Complaint, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*pagination.Page[models.Complaint], error)
	List(ctx context.Context, params ListParams) (*pagination.Page[models.Complaint], error)
	ListReasons(ctx context.Context, activeOnly bool) ([]models.ComplaintReason, error)
	CreateReason(ctx context.Context, input ReasonInput) (*models.ComplaintReason, error)
	UpdateReason(ctx context.Context, id uuid.UUID, input ReasonInput) (*models.ComplaintReason, error)
}

// ServiceParams wires the complaint workflow.
type ServiceParams struct {
	Repository *Repository
	Tx         txRunner
	Orders     OrderLocker
	Invoices   InvoiceFinder
	Notifier   Notifier
}

type service struct {
	repo     *Repository
	tx       txRunner
	orders   OrderLocker
	invoices InvoiceFinder
	notifier Notifier
	now      func() time.Time
}

// NewService builds the complaint workflow.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("complaints repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order locker required")
	}
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoice finder required")
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

func (s *service) File(ctx context.Context, input FileInput) (*models.Complaint, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "complaint description required")
	}
	custom := trimmed(input.CustomReason)
	if input.ReasonID == nil && custom == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a reason or a custom reason is required")
	}

	var complaint *models.Complaint
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.LockForUpdate(ctx, tx, input.OrderID)
		if err != nil {
			return err
		}
		if order.CustomerID != input.CustomerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
		}
		if order.Status != enums.OrderStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeValidation, "complaints can only be filed for delivered orders").
				WithDetails(map[string]any{"order_id": order.ID, "status": order.Status})
		}

		repo := s.repo.WithTx(tx)
		var reasonLabel string
		if input.ReasonID != nil {
			reason, err := repo.FindReason(ctx, *input.ReasonID)
			if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !reason.IsActive) {
				return pkgerrors.New(pkgerrors.CodeValidation, "complaint reason not available")
			}
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load complaint reason")
			}
			reasonLabel = reason.Name
			custom = nil
		} else {
			reasonLabel = *custom
		}

		invoice, err := s.invoices.FindForOrder(ctx, tx, order.ID)
		if err != nil {
			return err
		}

		complaint = &models.Complaint{
			Reference:    reference.New(reference.Complaint),
			OrderID:      order.ID,
			CustomerID:   input.CustomerID,
			ReasonID:     input.ReasonID,
			CustomReason: custom,
			Description:  description,
			Attachments:  pq.StringArray(input.Attachments),
			Status:       enums.ComplaintStatusOpen,
		}
		if invoice != nil {
			complaint.InvoiceID = &invoice.ID
		}
		if err := repo.Create(ctx, complaint); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create complaint")
		}

		refs := complaintRefs(complaint)
		return s.notifier.Apply(ctx, tx, []notifications.Event{
			notifications.ToUser(input.CustomerID, notifications.Notice{
				Kind:    enums.NotificationComplaintCreated,
				Title:   "Complaint received",
				Message: fmt.Sprintf("We received your complaint %s about order %s and will get back to you.", complaint.Reference, order.Reference),
				Refs:    refs,
			}),
			notifications.ToOperators(notifications.Notice{
				Kind:    enums.NotificationComplaintCreated,
				Title:   "New complaint",
				Message: fmt.Sprintf("Complaint %s was filed on order %s: %s.", complaint.Reference, order.Reference, reasonLabel),
				Refs:    refs,
			}),
		})
	})
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

// statusRank orders complaint statuses; a complaint may only move to a
// strictly higher rank.
var statusRank = map[enums.ComplaintStatus]int{
	enums.ComplaintStatusOpen:         0,
	enums.ComplaintStatusInReview:     1,
	enums.ComplaintStatusAwaitingUser: 2,
	enums.ComplaintStatusResolved:     3,
	enums.ComplaintStatusRejected:     3,
}

// CanTransition reports whether a complaint may move from one status to another.
func CanTransition(from, to enums.ComplaintStatus) bool {
	if from.IsClosed() || !to.IsValid() {
		return false
	}
	return statusRank[to] > statusRank[from]
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Complaint, error) {
	if input.OperatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator identity missing")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid complaint status")
	}

	var complaint *models.Complaint
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		complaint, err = repo.LockByID(ctx, input.ComplaintID)
		if err != nil {
			return mapFindErr(err)
		}
		if !CanTransition(complaint.Status, input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("complaint %s is %s and cannot move to %s", complaint.Reference, complaint.Status, input.Status)).
				WithDetails(map[string]any{"complaint_id": complaint.ID, "status": complaint.Status, "target_status": input.Status})
		}

		updates := map[string]any{
			"status":     input.Status,
			"handled_by": input.OperatorID,
		}
		if notes := trimmed(input.AdminNotes); notes != nil {
			updates["admin_notes"] = *notes
			complaint.AdminNotes = notes
		}
		if notes := trimmed(input.ResolutionNotes); notes != nil {
			updates["resolution_notes"] = *notes
			complaint.ResolutionNotes = notes
		}
		if input.Status == enums.ComplaintStatusResolved {
			now := s.now().UTC()
			updates["resolved_at"] = now
			complaint.ResolvedAt = &now
		}
		if err := repo.Update(ctx, complaint.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update complaint")
		}
		complaint.Status = input.Status
		complaint.HandledBy = &input.OperatorID

		message := fmt.Sprintf("Your complaint %s is now %s.", complaint.Reference, statusLabel(input.Status))
		if complaint.ResolutionNotes != nil && input.Status.IsClosed() {
			message = fmt.Sprintf("%s %s", message, *complaint.ResolutionNotes)
		}
		return s.notifier.Apply(ctx, tx, []notifications.Event{
			notifications.ToUser(complaint.CustomerID, notifications.Notice{
				Kind:    enums.NotificationComplaintUpdated,
				Title:   "Complaint updated",
				Message: message,
				Refs:    complaintRefs(complaint),
			}),
		})
	})
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	complaint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFindErr(err)
	}
	return complaint, nil
}

func (s *service) GetForCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Complaint, error) {
	complaint, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if complaint.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "complaint does not belong to customer")
	}
	return complaint, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*pagination.Page[models.Complaint], error) {
	return s.list(ctx, listParams{CustomerID: &customerID}, params)
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Page[models.Complaint], error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	return s.list(ctx, listParams{Status: params.Status}, params.Pagination)
}

func (s *service) list(ctx context.Context, query listParams, params pagination.Params) (*pagination.Page[models.Complaint], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.Cursor = cursor
	query.Limit = pagination.LimitWithBuffer(params.Limit)
	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list complaints")
	}
	page := pagination.Trim(rows, params.Limit, func(c models.Complaint) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	return &page, nil
}

func statusLabel(status enums.ComplaintStatus) string {
	switch status {
	case enums.ComplaintStatusInReview:
		return "being reviewed"
	case enums.ComplaintStatusAwaitingUser:
		return "waiting for your reply"
	case enums.ComplaintStatusResolved:
		return "resolved"
	case enums.ComplaintStatusRejected:
		return "closed without action"
	default:
		return string(status)
	}
}

func complaintRefs(complaint *models.Complaint) notifications.Refs {
	refs := notifications.Refs{
		OrderID:     notifications.Ref(complaint.OrderID),
		ComplaintID: notifications.Ref(complaint.ID),
	}
	if complaint.InvoiceID != nil {
		refs.InvoiceID = notifications.Ref(*complaint.InvoiceID)
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
		return pkgerrors.New(pkgerrors.CodeNotFound, "complaint not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load complaint")
}
