package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/config"
	"github.com/equiptrade/fulfillment-backend/pkg/db"
	"github.com/equiptrade/fulfillment-backend/pkg/db/dbtest"
	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
	"github.com/equiptrade/fulfillment-backend/pkg/reference"
)

func newTestLedger(t *testing.T) (*Ledger, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	ledger, err := NewLedger(NewRepository(client.DB()), config.BillingConfig{
		Currency:            "DZD",
		PaymentInstructions: "Pay by CCP.",
	})
	require.NoError(t, err)
	return ledger, client
}

func testOrder() *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		SubtotalCents: 3500,
		TaxCents:      0,
		ShippingCents: 300,
		TotalCents:    3800,
	}
}

func createInvoice(t *testing.T, ledger *Ledger, client *db.Client, order *models.Order) (*models.Invoice, bool) {
	t.Helper()
	var inv *models.Invoice
	var created bool
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		inv, created, err = ledger.CreateFor(context.Background(), tx, order)
		return err
	})
	require.NoError(t, err)
	return inv, created
}

func TestCreateForSnapshotsOrderAmounts(t *testing.T) {
	ledger, client := newTestLedger(t)
	order := testOrder()

	inv, created := createInvoice(t, ledger, client, order)
	require.True(t, created)
	assert.Equal(t, enums.InvoiceStatusUnpaid, inv.Status)
	assert.Equal(t, int64(3800), inv.TotalCents)
	assert.Equal(t, order.CustomerID, inv.CustomerID)
	assert.Equal(t, "DZD", inv.Currency)
	require.NotNil(t, inv.PaymentInstructions)
	assert.True(t, reference.HasPrefix(inv.Number, reference.Invoice))
}

func TestCreateForIsIdempotent(t *testing.T) {
	ledger, client := newTestLedger(t)
	order := testOrder()

	first, created := createInvoice(t, ledger, client, order)
	require.True(t, created)
	second, created := createInvoice(t, ledger, client, order)
	require.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Number, second.Number)

	var count int64
	require.NoError(t, client.DB().Model(&models.Invoice{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateForRequiresTransaction(t *testing.T) {
	ledger, _ := newTestLedger(t)
	_, _, err := ledger.CreateFor(context.Background(), nil, testOrder())
	require.Error(t, err)
}

func TestStatusGuards(t *testing.T) {
	ledger, client := newTestLedger(t)
	inv, _ := createInvoice(t, ledger, client, testOrder())
	ctx := context.Background()

	run := func(fn func(tx *gorm.DB) error) error {
		return client.WithTx(ctx, fn)
	}

	err := run(func(tx *gorm.DB) error { return ledger.MarkPaid(ctx, tx, inv, time.Now()) })
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "unpaid invoice cannot be marked paid directly: %v", err)

	err = run(func(tx *gorm.DB) error { return ledger.MarkRefunded(ctx, tx, inv, time.Now()) })
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	require.NoError(t, run(func(tx *gorm.DB) error { return ledger.MarkPaymentSubmitted(ctx, tx, inv) }))
	err = run(func(tx *gorm.DB) error { return ledger.MarkPaymentSubmitted(ctx, tx, inv) })
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "double submission must conflict")

	require.NoError(t, run(func(tx *gorm.DB) error { return ledger.MarkPaymentRejected(ctx, tx, inv) }))
	require.NoError(t, run(func(tx *gorm.DB) error { return ledger.MarkPaymentSubmitted(ctx, tx, inv) }))
	require.NoError(t, run(func(tx *gorm.DB) error { return ledger.MarkPaid(ctx, tx, inv, time.Now()) }))
	require.NoError(t, run(func(tx *gorm.DB) error { return ledger.MarkRefunded(ctx, tx, inv, time.Now()) }))

	stored, err := ledger.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusRefunded, stored.Status)
	assert.NotNil(t, stored.PaidAt)
	assert.NotNil(t, stored.RefundedAt)
}

func TestGetMissingInvoiceIsNotFound(t *testing.T) {
	ledger, _ := newTestLedger(t)
	_, err := ledger.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = ledger.GetByOrder(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListForCustomerPages(t *testing.T) {
	ledger, client := newTestLedger(t)
	customer := uuid.New()
	for i := 0; i < 3; i++ {
		order := testOrder()
		order.CustomerID = customer
		createInvoice(t, ledger, client, order)
	}
	createInvoice(t, ledger, client, testOrder())

	page, err := ledger.ListForCustomer(context.Background(), customer, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := ledger.ListForCustomer(context.Background(), customer, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	require.Empty(t, rest.NextCursor)
}
