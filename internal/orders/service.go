package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/internal/catalog"
	"github.com/equiptrade/fulfillment-backend/internal/notifications"
	"github.com/equiptrade/fulfillment-backend/pkg/config"
	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/money"
	"github.com/equiptrade/fulfillment-backend/pkg/outbox"
	"github.com/equiptrade/fulfillment-backend/pkg/outbox/payloads"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
	"github.com/equiptrade/fulfillment-backend/pkg/reference"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// StockReserver reserves and returns catalog stock on the caller's transaction.
type StockReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, lines []catalog.Line) ([]catalog.ReservedLine, error)
	Release(ctx context.Context, tx *gorm.DB, lines []catalog.Line) error
	ShippingOption(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ShippingType, error)
}

// InvoiceIssuer creates the invoice for a confirmed order.
type InvoiceIssuer interface {
	CreateFor(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Invoice, bool, error)
}

// Notifier applies notification events inside the caller's transaction.
type Notifier interface {
	Apply(ctx context.Context, tx *gorm.DB, events []notifications.Event) error
}

// Service is the order lifecycle. It is the only writer of orders.status.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Order, error)
	Confirm(ctx context.Context, orderID, operatorID uuid.UUID) (*models.Order, *models.Invoice, error)
	Reject(ctx context.Context, orderID, operatorID uuid.UUID, reason string) (*models.Order, error)
	MarkProcessing(ctx context.Context, orderID, operatorID uuid.UUID) (*models.Order, error)
	MarkShipped(ctx context.Context, orderID, operatorID uuid.UUID, trackingNumber string) (*models.Order, error)
	MarkDelivered(ctx context.Context, orderID, operatorID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, orderID, actorID uuid.UUID) (*models.Order, error)
	Annotate(ctx context.Context, input AnnotateInput) (*models.OrderNote, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetForCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*pagination.Page[models.Order], error)
	List(ctx context.Context, params ListParams) (*pagination.Page[models.Order], error)
	ListAwaitingPaymentBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	LockForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	Transition(ctx context.Context, tx *gorm.DB, input TransitionInput) error
}

// ServiceParams wires the lifecycle's collaborators.
type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Catalog    StockReserver
	Invoices   InvoiceIssuer
	Notifier   Notifier
	Outbox     outboxPublisher
	Billing    config.BillingConfig
}

type service struct {
	repo     Repository
	tx       txRunner
	catalog  StockReserver
	invoices InvoiceIssuer
	notifier Notifier
	outbox   outboxPublisher
	billing  config.BillingConfig
	taxRate  decimal.Decimal
	now      func() time.Time
}

// NewService builds the order lifecycle with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Invoices == nil {
		return nil, fmt.Errorf("invoice issuer required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	rate, err := money.ParseRate(params.Billing.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("billing tax rate: %w", err)
	}
	return &service{
		repo:     params.Repository,
		tx:       params.Tx,
		catalog:  params.Catalog,
		invoices: params.Invoices,
		notifier: params.Notifier,
		outbox:   params.Outbox,
		billing:  params.Billing,
		taxRate:  rate,
		now:      time.Now,
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for i, item := range input.Items {
		details := map[string]any{"item_index": i}
		switch {
		case item.ProductID == uuid.Nil:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required").WithDetails(details)
		case item.Quantity <= 0:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").WithDetails(details)
		case item.UnitPriceCents <= 0:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive").WithDetails(details)
		}
	}
	if missing := input.Shipping.missingFields(); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address incomplete").
			WithDetails(map[string]any{"missing": missing})
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		shippingCents := s.billing.DefaultShippingCents
		var optionName *string
		if id := input.Shipping.ShippingOptionID; id != nil {
			option, err := s.catalog.ShippingOption(ctx, tx, *id)
			if err != nil {
				return err
			}
			shippingCents = option.CostCents
			name := option.Name
			optionName = &name
		}

		lines := make([]catalog.Line, len(input.Items))
		for i, item := range input.Items {
			lines[i] = catalog.Line{ProductID: item.ProductID, VariantID: item.VariantID, Quantity: item.Quantity}
		}
		reserved, err := s.catalog.Reserve(ctx, tx, lines)
		if err != nil {
			return err
		}

		items := make([]models.OrderItem, len(reserved))
		var subtotal int64
		for i, line := range reserved {
			unit := input.Items[i].UnitPriceCents
			total := money.LineTotal(unit, line.Quantity)
			subtotal += total
			items[i] = models.OrderItem{
				ProductID:      line.ProductID,
				VariantID:      line.VariantID,
				ProductName:    line.ProductName,
				VariantName:    line.VariantName,
				Quantity:       line.Quantity,
				UnitPriceCents: unit,
				LineTotalCents: total,
			}
		}
		tax := money.Tax(subtotal, s.taxRate)

		shipping := input.Shipping
		order = &models.Order{
			Reference:          reference.New(reference.Order),
			CustomerID:         input.CustomerID,
			Status:             enums.OrderStatusPendingConfirmation,
			RecipientName:      strings.TrimSpace(shipping.RecipientName),
			Phone:              strings.TrimSpace(shipping.Phone),
			AddressLine:        strings.TrimSpace(shipping.AddressLine),
			City:               strings.TrimSpace(shipping.City),
			State:              strings.TrimSpace(shipping.State),
			PostalCode:         shipping.PostalCode,
			Country:            strings.TrimSpace(shipping.Country),
			ShippingOptionID:   shipping.ShippingOptionID,
			ShippingOptionName: optionName,
			SubtotalCents:      subtotal,
			TaxCents:           tax,
			ShippingCents:      shippingCents,
			TotalCents:         subtotal + tax + shippingCents,
			CustomerNotes:      input.CustomerNotes,
			Items:              items,
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := s.emitStatusChange(ctx, tx, order, "", input.CustomerID, enums.UserRoleCustomer, order.CreatedAt); err != nil {
			return err
		}

		total := s.format(order.TotalCents)
		return s.notifier.Apply(ctx, tx, []notifications.Event{
			notifications.ToUser(order.CustomerID, notifications.Notice{
				Kind:    enums.NotificationOrderCreated,
				Title:   "Order received",
				Message: fmt.Sprintf("Your order %s for %s was received and is awaiting confirmation.", order.Reference, total),
				Refs:    orderRefs(order),
			}),
			notifications.ToOperators(notifications.Notice{
				Kind:    enums.NotificationOrderCreated,
				Title:   "New order to confirm",
				Message: fmt.Sprintf("Order %s for %s (%d items) is waiting for confirmation.", order.Reference, total, len(items)),
				Refs:    orderRefs(order),
			}),
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Confirm(ctx context.Context, orderID, operatorID uuid.UUID) (*models.Order, *models.Invoice, error) {
	if operatorID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator identity missing")
	}
	var (
		order   *models.Order
		invoice *models.Invoice
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = s.LockForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := s.Transition(ctx, tx, TransitionInput{
			Order:   order,
			To:      enums.OrderStatusConfirmed,
			ActorID: operatorID,
			Role:    enums.UserRoleOperator,
			Updates: map[string]any{"confirmed_by": operatorID},
		}); err != nil {
			return err
		}
		order.ConfirmedBy = &operatorID

		invoice, _, err = s.invoices.CreateFor(ctx, tx, order)
		if err != nil {
			return err
		}
		if err := s.Transition(ctx, tx, TransitionInput{
			Order:   order,
			To:      enums.OrderStatusAwaitingPayment,
			ActorID: operatorID,
			Role:    enums.UserRoleOperator,
		}); err != nil {
			return err
		}

		refs := orderRefs(order)
		refs.InvoiceID = notifications.Ref(invoice.ID)
		return s.notifier.Apply(ctx, tx, []notifications.Event{
			notifications.ToUser(order.CustomerID, notifications.Notice{
				Kind:    enums.NotificationOrderConfirmed,
				Title:   "Order confirmed",
				Message: fmt.Sprintf("Your order %s has been confirmed.", order.Reference),
				Refs:    refs,
			}),
			notifications.ToUser(order.CustomerID, notifications.Notice{
				Kind:    enums.NotificationInvoiceGenerated,
				Title:   "Invoice issued",
				Message: fmt.Sprintf("Invoice %s for %s is ready. Upload your payment proof once paid.", invoice.Number, s.format(invoice.TotalCents)),
				Refs:    refs,
			}),
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return order, invoice, nil
}

func (s *service) Reject(ctx context.Context, orderID, operatorID uuid.UUID, reason string) (*models.Order, error) {
	if operatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator identity missing")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = s.LockForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := s.Transition(ctx, tx, TransitionInput{
			Order:   order,
			To:      enums.OrderStatusRejected,
			ActorID: operatorID,
			Role:    enums.UserRoleOperator,
		}); err != nil {
			return err
		}
		if _, err := s.upsertNote(ctx, tx, order.ID, operatorID, reason, nil); err != nil {
			return err
		}
		if err := s.releaseStock(ctx, tx, order.ID); err != nil {
			return err
		}
		return s.notifier.Apply(ctx, tx, []notifications.Event{
			notifications.ToUser(order.CustomerID, notifications.Notice{
				Kind:    enums.NotificationOrderRejected,
				Title:   "Order rejected",
				Message: fmt.Sprintf("Your order %s was rejected: %s", order.Reference, reason),
				Refs:    orderRefs(order),
			}),
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) MarkProcessing(ctx context.Context, orderID, operatorID uuid.UUID) (*models.Order, error) {
	return s.advance(ctx, orderID, operatorID, enums.OrderStatusProcessing, nil, func(order *models.Order) notifications.Notice {
		return notifications.Notice{
			Kind:    enums.NotificationOrderProcessing,
			Title:   "Order in preparation",
			Message: fmt.Sprintf("Your order %s is being prepared.", order.Reference),
		}
	})
}

func (s *service) MarkShipped(ctx context.Context, orderID, operatorID uuid.UUID, trackingNumber string) (*models.Order, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	var updates map[string]any
	if trackingNumber != "" {
		updates = map[string]any{"tracking_number": trackingNumber}
	}
	order, err := s.advance(ctx, orderID, operatorID, enums.OrderStatusShipped, updates, func(order *models.Order) notifications.Notice {
		message := fmt.Sprintf("Your order %s has been shipped.", order.Reference)
		if trackingNumber != "" {
			message = fmt.Sprintf("Your order %s has been shipped. Tracking number: %s.", order.Reference, trackingNumber)
		}
		return notifications.Notice{
			Kind:    enums.NotificationOrderShipped,
			Title:   "Order shipped",
			Message: message,
		}
	})
	if err != nil {
		return nil, err
	}
	if trackingNumber != "" {
		order.TrackingNumber = &trackingNumber
	}
	return order, nil
}

func (s *service) MarkDelivered(ctx context.Context, orderID, operatorID uuid.UUID) (*models.Order, error) {
	return s.advance(ctx, orderID, operatorID, enums.OrderStatusDelivered, nil, func(order *models.Order) notifications.Notice {
		return notifications.Notice{
			Kind:    enums.NotificationOrderDelivered,
			Title:   "Order delivered",
			Message: fmt.Sprintf("Your order %s has been delivered. Contact us within a few days if anything is wrong.", order.Reference),
		}
	})
}

// Cancel abandons an order that was never paid. A nil actor denotes the
// payment window expiry job.
func (s *service) Cancel(ctx context.Context, orderID, actorID uuid.UUID) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = s.LockForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := s.Transition(ctx, tx, TransitionInput{
			Order:   order,
			To:      enums.OrderStatusCancelled,
			ActorID: actorID,
			Role:    enums.UserRoleOperator,
		}); err != nil {
			return err
		}
		if err := s.releaseStock(ctx, tx, order.ID); err != nil {
			return err
		}
		return s.notifier.Apply(ctx, tx, []notifications.Event{
			notifications.ToUser(order.CustomerID, notifications.Notice{
				Kind:    enums.NotificationOrderCancelled,
				Title:   "Order cancelled",
				Message: cancellationMessage(order, actorID),
				Refs:    orderRefs(order),
			}),
			notifications.ToOperators(notifications.Notice{
				Kind:    enums.NotificationOrderCancelled,
				Title:   "Order cancelled",
				Message: fmt.Sprintf("Order %s was cancelled and its stock released.", order.Reference),
				Refs:    orderRefs(order),
			}),
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// cancellationMessage tells the customer why the order ended. A nil actor is
// the payment-window job.
func cancellationMessage(order *models.Order, actorID uuid.UUID) string {
	if actorID == uuid.Nil {
		return fmt.Sprintf("Your order %s was cancelled because no payment was received.", order.Reference)
	}
	return fmt.Sprintf("Your order %s was cancelled by our team. Contact support if you have questions.", order.Reference)
}

func (s *service) Annotate(ctx context.Context, input AnnotateInput) (*models.OrderNote, error) {
	if input.AuthorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator identity missing")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "note body required")
	}
	var note *models.OrderNote
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.LockForUpdate(ctx, tx, input.OrderID)
		if err != nil {
			return err
		}
		note, err = s.upsertNote(ctx, tx, order.ID, input.AuthorID, body, input.Attachments)
		return err
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapFindErr(err)
	}
	return order, nil
}

func (s *service) GetForCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
	}
	return order, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*pagination.Page[models.Order], error) {
	return s.list(ctx, listParams{CustomerID: &customerID}, params)
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Page[models.Order], error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	return s.list(ctx, listParams{Status: params.Status}, params.Pagination)
}

func (s *service) ListAwaitingPaymentBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	rows, err := s.repo.ListAwaitingPaymentBefore(ctx, cutoff, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unpaid orders")
	}
	return rows, nil
}

// LockForUpdate loads and locks the order row inside tx.
func (s *service) LockForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order lock requires a transaction")
	}
	order, err := s.repo.WithTx(tx).LockByID(ctx, id)
	if err != nil {
		return nil, mapFindErr(err)
	}
	return order, nil
}

// Transition writes a new status on a locked order, stamps the matching
// timestamp and queues an order_status_changed event.
func (s *service) Transition(ctx context.Context, tx *gorm.DB, input TransitionInput) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "order transition requires a transaction")
	}
	order := input.Order
	if order == nil || order.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	from := order.Status
	if isNoopTransition(from, input.To) {
		return nil
	}
	if !CanTransition(from, input.To) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order %s is %s and cannot move to %s", order.Reference, from, input.To)).
			WithDetails(map[string]any{"order_id": order.ID, "status": from, "target_status": input.To})
	}

	now := s.now().UTC()
	updates := map[string]any{"status": input.To}
	for k, v := range input.Updates {
		updates[k] = v
	}
	if column := stamp(order, input.To, now); column != "" {
		updates[column] = now
	}
	if err := s.repo.WithTx(tx).Update(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = input.To
	return s.emitStatusChange(ctx, tx, order, from, input.ActorID, input.Role, now)
}

func (s *service) advance(ctx context.Context, orderID, operatorID uuid.UUID, to enums.OrderStatus, updates map[string]any, notice func(*models.Order) notifications.Notice) (*models.Order, error) {
	if operatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator identity missing")
	}
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = s.LockForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := s.Transition(ctx, tx, TransitionInput{
			Order:   order,
			To:      to,
			ActorID: operatorID,
			Role:    enums.UserRoleOperator,
			Updates: updates,
		}); err != nil {
			return err
		}
		n := notice(order)
		n.Refs = orderRefs(order)
		return s.notifier.Apply(ctx, tx, []notifications.Event{notifications.ToUser(order.CustomerID, n)})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) upsertNote(ctx context.Context, tx *gorm.DB, orderID, authorID uuid.UUID, body string, attachments []string) (*models.OrderNote, error) {
	repo := s.repo.WithTx(tx)
	note, err := repo.FindNote(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order note")
	}
	if note == nil {
		note = &models.OrderNote{OrderID: orderID}
	}
	note.Body = body
	// nil keeps what the note already has; an empty slice clears it
	if attachments != nil {
		note.Attachments = pq.StringArray(attachments)
	}
	note.AuthorID = &authorID
	if err := repo.SaveNote(ctx, note); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order note")
	}
	return note, nil
}

func (s *service) releaseStock(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	items, err := s.repo.WithTx(tx).FindItems(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}
	lines := make([]catalog.Line, len(items))
	for i, item := range items {
		lines[i] = catalog.Line{ProductID: item.ProductID, VariantID: item.VariantID, Quantity: item.Quantity}
	}
	return s.catalog.Release(ctx, tx, lines)
}

func (s *service) emitStatusChange(ctx context.Context, tx *gorm.DB, order *models.Order, from enums.OrderStatus, actorID uuid.UUID, role enums.UserRole, at time.Time) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         buildActor(actorID, role),
		OccurredAt:    at,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:    order.ID,
			Reference:  order.Reference,
			CustomerID: order.CustomerID,
			From:       from,
			To:         order.Status,
			TotalCents: order.TotalCents,
			ChangedAt:  at,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order status event")
	}
	return nil
}

func (s *service) list(ctx context.Context, query listParams, params pagination.Params) (*pagination.Page[models.Order], error) {
	query.Limit = pagination.LimitWithBuffer(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.Cursor = cursor
	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &page, nil
}

func (s *service) format(cents int64) string {
	currency := strings.TrimSpace(s.billing.Currency)
	if currency == "" {
		currency = "DZD"
	}
	return money.Format(cents, currency)
}

func buildActor(userID uuid.UUID, role enums.UserRole) *outbox.ActorRef {
	if userID == uuid.Nil {
		return &outbox.ActorRef{Role: "system"}
	}
	return &outbox.ActorRef{UserID: userID, Role: string(role)}
}

func orderRefs(order *models.Order) notifications.Refs {
	return notifications.Refs{OrderID: notifications.Ref(order.ID)}
}

func mapFindErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
