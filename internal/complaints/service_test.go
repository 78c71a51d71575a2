package complaints

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/internal/catalog"
	"github.com/equiptrade/fulfillment-backend/internal/invoices"
	"github.com/equiptrade/fulfillment-backend/internal/notifications"
	"github.com/equiptrade/fulfillment-backend/internal/orders"
	"github.com/equiptrade/fulfillment-backend/internal/payments"
	"github.com/equiptrade/fulfillment-backend/pkg/config"
	"github.com/equiptrade/fulfillment-backend/pkg/db"
	"github.com/equiptrade/fulfillment-backend/pkg/db/dbtest"
	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/outbox"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
)

type recordingNotifier struct {
	events []notifications.Event
}

func (r *recordingNotifier) Apply(_ context.Context, _ *gorm.DB, events []notifications.Event) error {
	r.events = append(r.events, events...)
	return nil
}

func (r *recordingNotifier) kinds() []enums.NotificationKind {
	out := make([]enums.NotificationKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Notice.Kind)
	}
	return out
}

type fixture struct {
	client   *db.Client
	orders   orders.Service
	payments payments.Service
	svc      Service
	notifier *recordingNotifier
	customer uuid.UUID
	operator uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	notifier := &recordingNotifier{}
	billing := config.BillingConfig{TaxRate: "0", DefaultShippingCents: 0, Currency: "DZD"}
	ledger, err := invoices.NewLedger(invoices.NewRepository(client.DB()), billing)
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repository: orders.NewRepository(client.DB()),
		Tx:         client,
		Catalog:    catalog.New(client.DB()),
		Invoices:   ledger,
		Notifier:   notifier,
		Outbox:     outbox.NewService(outbox.NewRepository(client.DB()), nil),
		Billing:    billing,
	})
	require.NoError(t, err)
	paymentSvc, err := payments.NewService(payments.ServiceParams{
		Repository: payments.NewRepository(client.DB()),
		Tx:         client,
		Orders:     orderSvc,
		Invoices:   ledger,
		Notifier:   notifier,
	})
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repository: NewRepository(client.DB()),
		Tx:         client,
		Orders:     orderSvc,
		Invoices:   ledger,
		Notifier:   notifier,
	})
	require.NoError(t, err)
	return &fixture{
		client:   client,
		orders:   orderSvc,
		payments: paymentSvc,
		svc:      svc,
		notifier: notifier,
		customer: uuid.New(),
		operator: uuid.New(),
	}
}

func (f *fixture) submittedOrder(t *testing.T) *models.Order {
	t.Helper()
	product := &models.Product{SKU: uuid.NewString(), Name: "Concrete mixer", PriceCents: 9000, StockQuantity: 5, IsActive: true}
	require.NoError(t, f.client.DB().Create(product).Error)
	order, err := f.orders.Submit(context.Background(), orders.SubmitInput{
		CustomerID: f.customer,
		Items:      []orders.ItemInput{{ProductID: product.ID, Quantity: 1, UnitPriceCents: 9000}},
		Shipping: orders.ShippingInput{
			RecipientName: "Karim B.", Phone: "0550000000", AddressLine: "12 rue Didouche",
			City: "Oran", State: "Oran", Country: "DZ",
		},
	})
	require.NoError(t, err)
	return order
}

// deliveredOrder walks an order through payment and delivery.
func (f *fixture) deliveredOrder(t *testing.T) (*models.Order, *models.Invoice) {
	t.Helper()
	ctx := context.Background()
	order := f.submittedOrder(t)
	_, invoice, err := f.orders.Confirm(ctx, order.ID, f.operator)
	require.NoError(t, err)
	proof, err := f.payments.SubmitProof(ctx, payments.SubmitProofInput{
		InvoiceID: invoice.ID, CustomerID: f.customer, Method: enums.PaymentMethodBankTransfer, EvidenceRef: "proofs/receipt.jpg",
	})
	require.NoError(t, err)
	_, err = f.payments.Verify(ctx, payments.VerifyInput{ProofID: proof.ID, OperatorID: f.operator, Approve: true})
	require.NoError(t, err)
	_, err = f.orders.MarkProcessing(ctx, order.ID, f.operator)
	require.NoError(t, err)
	_, err = f.orders.MarkShipped(ctx, order.ID, f.operator, "TRK-881")
	require.NoError(t, err)
	order, err = f.orders.MarkDelivered(ctx, order.ID, f.operator)
	require.NoError(t, err)
	return order, invoice
}

func (f *fixture) reason(t *testing.T, name string, active bool) *models.ComplaintReason {
	t.Helper()
	reason, err := f.svc.CreateReason(context.Background(), ReasonInput{Name: &name, IsActive: &active})
	require.NoError(t, err)
	return reason
}

func TestFileComplaint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, invoice := f.deliveredOrder(t)
	reason := f.reason(t, "Damaged on arrival", true)
	f.notifier.events = nil

	complaint, err := f.svc.File(ctx, FileInput{
		OrderID:     order.ID,
		CustomerID:  f.customer,
		ReasonID:    &reason.ID,
		Description: "  The drum is dented  ",
		Attachments: []string{"complaints/dent.jpg"},
	})
	require.NoError(t, err)

	assert.Equal(t, enums.ComplaintStatusOpen, complaint.Status)
	assert.Contains(t, complaint.Reference, "RECL-")
	assert.Equal(t, "The drum is dented", complaint.Description)
	require.NotNil(t, complaint.InvoiceID)
	assert.Equal(t, invoice.ID, *complaint.InvoiceID)
	assert.Nil(t, complaint.CustomReason)

	require.Len(t, f.notifier.events, 2)
	assert.Equal(t, f.customer, f.notifier.events[0].RecipientID)
	assert.True(t, f.notifier.events[1].Operators)
	assert.Equal(t, []enums.NotificationKind{enums.NotificationComplaintCreated, enums.NotificationComplaintCreated}, f.notifier.kinds())

	stored, err := f.svc.GetForCustomer(ctx, complaint.ID, f.customer)
	require.NoError(t, err)
	assert.Equal(t, []string{"complaints/dent.jpg"}, []string(stored.Attachments))
}

func TestFileComplaintGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	delivered, _ := f.deliveredOrder(t)
	pending := f.submittedOrder(t)
	inactive := f.reason(t, "Retired reason", false)
	custom := "Wrong colour"
	blank := "   "
	missing := uuid.New()

	cases := []struct {
		name  string
		input FileInput
		code  pkgerrors.Code
	}{
		{"order not delivered", FileInput{OrderID: pending.ID, CustomerID: f.customer, CustomReason: &custom, Description: "x"}, pkgerrors.CodeValidation},
		{"not the owner", FileInput{OrderID: delivered.ID, CustomerID: uuid.New(), CustomReason: &custom, Description: "x"}, pkgerrors.CodeForbidden},
		{"no reason", FileInput{OrderID: delivered.ID, CustomerID: f.customer, CustomReason: &blank, Description: "x"}, pkgerrors.CodeValidation},
		{"inactive reason", FileInput{OrderID: delivered.ID, CustomerID: f.customer, ReasonID: &inactive.ID, Description: "x"}, pkgerrors.CodeValidation},
		{"unknown reason", FileInput{OrderID: delivered.ID, CustomerID: f.customer, ReasonID: &missing, Description: "x"}, pkgerrors.CodeValidation},
		{"no description", FileInput{OrderID: delivered.ID, CustomerID: f.customer, CustomReason: &custom}, pkgerrors.CodeValidation},
		{"unknown order", FileInput{OrderID: uuid.New(), CustomerID: f.customer, CustomReason: &custom, Description: "x"}, pkgerrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.File(ctx, tc.input)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}

	complaint, err := f.svc.File(ctx, FileInput{OrderID: delivered.ID, CustomerID: f.customer, CustomReason: &custom, Description: "Ordered red"})
	require.NoError(t, err)
	require.NotNil(t, complaint.CustomReason)
	assert.Equal(t, custom, *complaint.CustomReason)
}

func TestUpdateStatusMovesForwardOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, _ := f.deliveredOrder(t)
	custom := "Missing parts"
	complaint, err := f.svc.File(ctx, FileInput{OrderID: order.ID, CustomerID: f.customer, CustomReason: &custom, Description: "No hose"})
	require.NoError(t, err)
	f.notifier.events = nil

	notes := "Checking with the warehouse"
	updated, err := f.svc.UpdateStatus(ctx, UpdateStatusInput{
		ComplaintID: complaint.ID, OperatorID: f.operator, Status: enums.ComplaintStatusInReview, AdminNotes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ComplaintStatusInReview, updated.Status)
	require.NotNil(t, updated.HandledBy)
	assert.Equal(t, f.operator, *updated.HandledBy)
	assert.Nil(t, updated.ResolvedAt)

	_, err = f.svc.UpdateStatus(ctx, UpdateStatusInput{ComplaintID: complaint.ID, OperatorID: f.operator, Status: enums.ComplaintStatusOpen})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	resolution := "Hose shipped separately."
	resolved, err := f.svc.UpdateStatus(ctx, UpdateStatusInput{
		ComplaintID: complaint.ID, OperatorID: f.operator, Status: enums.ComplaintStatusResolved, ResolutionNotes: &resolution,
	})
	require.NoError(t, err)
	assert.NotNil(t, resolved.ResolvedAt)

	_, err = f.svc.UpdateStatus(ctx, UpdateStatusInput{ComplaintID: complaint.ID, OperatorID: f.operator, Status: enums.ComplaintStatusRejected})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.UpdateStatus(ctx, UpdateStatusInput{ComplaintID: complaint.ID, OperatorID: f.operator, Status: "escalated"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	stored, err := f.svc.Get(ctx, complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ComplaintStatusResolved, stored.Status)
	require.NotNil(t, stored.AdminNotes)
	assert.Equal(t, notes, *stored.AdminNotes)
	require.NotNil(t, stored.ResolutionNotes)
	assert.Equal(t, resolution, *stored.ResolutionNotes)

	require.Len(t, f.notifier.events, 2)
	for _, e := range f.notifier.events {
		assert.Equal(t, enums.NotificationComplaintUpdated, e.Notice.Kind)
		assert.Equal(t, f.customer, e.RecipientID)
	}
	assert.Contains(t, f.notifier.events[1].Notice.Message, resolution)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(enums.ComplaintStatusOpen, enums.ComplaintStatusAwaitingUser))
	assert.True(t, CanTransition(enums.ComplaintStatusAwaitingUser, enums.ComplaintStatusRejected))
	assert.False(t, CanTransition(enums.ComplaintStatusAwaitingUser, enums.ComplaintStatusInReview))
	assert.False(t, CanTransition(enums.ComplaintStatusInReview, enums.ComplaintStatusInReview))
	assert.False(t, CanTransition(enums.ComplaintStatusRejected, enums.ComplaintStatusResolved))
}

func TestListComplaints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, _ := f.deliveredOrder(t)
	custom := "Late delivery"
	for i := 0; i < 3; i++ {
		_, err := f.svc.File(ctx, FileInput{OrderID: order.ID, CustomerID: f.customer, CustomReason: &custom, Description: "Took two weeks"})
		require.NoError(t, err)
	}

	page, err := f.svc.ListForCustomer(ctx, f.customer, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	next, err := f.svc.ListForCustomer(ctx, f.customer, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, next.Items, 1)
	assert.Empty(t, next.NextCursor)

	other, err := f.svc.ListForCustomer(ctx, uuid.New(), pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, other.Items)

	_, err = f.svc.UpdateStatus(ctx, UpdateStatusInput{ComplaintID: page.Items[0].ID, OperatorID: f.operator, Status: enums.ComplaintStatusInReview})
	require.NoError(t, err)
	status := enums.ComplaintStatusOpen
	open, err := f.svc.List(ctx, ListParams{Status: &status, Pagination: pagination.Params{Limit: 10}})
	require.NoError(t, err)
	assert.Len(t, open.Items, 2)

	bad := enums.ComplaintStatus("lost")
	_, err = f.svc.List(ctx, ListParams{Status: &bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.GetForCustomer(ctx, page.Items[0].ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestComplaintReasons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.reason(t, "Damaged", true)
	f.reason(t, "Incomplete", true)
	f.reason(t, "Legacy", false)

	active, err := f.svc.ListReasons(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	all, err := f.svc.ListReasons(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	off := false
	order := 5
	updated, err := f.svc.UpdateReason(ctx, first.ID, ReasonInput{IsActive: &off, DisplayOrder: &order})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 5, updated.DisplayOrder)
	assert.Equal(t, "Damaged", updated.Name)

	active, err = f.svc.ListReasons(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	blank := " "
	_, err = f.svc.UpdateReason(ctx, first.ID, ReasonInput{Name: &blank})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = f.svc.UpdateReason(ctx, uuid.New(), ReasonInput{IsActive: &off})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.CreateReason(ctx, ReasonInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
