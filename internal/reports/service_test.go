package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/db/dbtest"
	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
)

func seedOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus, total int64, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		Reference:     "CMD-" + uuid.NewString()[:12],
		CustomerID:    uuid.New(),
		Status:        status,
		RecipientName: "Nadia M.",
		Phone:         "0770000000",
		AddressLine:   "3 rue Larbi Ben M'hidi",
		City:          "Alger",
		State:         "Alger",
		Country:       "DZ",
		SubtotalCents: total,
		TotalCents:    total,
		CreatedAt:     createdAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestOrderStats(t *testing.T) {
	db := dbtest.Open(t).DB()
	svc, err := NewService(db)
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Now().UTC()

	seedOrder(t, db, enums.OrderStatusPaid, 1000, now)
	seedOrder(t, db, enums.OrderStatusDelivered, 3000, now)
	seedOrder(t, db, enums.OrderStatusCancelled, 9000, now)
	seedOrder(t, db, enums.OrderStatusPendingConfirmation, 500, now)
	seedOrder(t, db, enums.OrderStatusDelivered, 8000, now.Add(-90*24*time.Hour))

	stats, err := svc.Orders(ctx, Window{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.Total)
	assert.Equal(t, int64(12000), stats.RevenueCents)
	assert.Equal(t, int64(4000), stats.AverageOrderCents)
	assert.Contains(t, stats.ByStatus, LabelValue{Label: "delivered", Value: 2})

	recent, err := svc.Orders(ctx, Window{Start: now.Add(-24 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, int64(4), recent.Total)
	assert.Equal(t, int64(4000), recent.RevenueCents)
	assert.Equal(t, int64(2000), recent.AverageOrderCents)

	_, err = svc.Orders(ctx, Window{Start: now, End: now.Add(-time.Hour)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPaymentStats(t *testing.T) {
	db := dbtest.Open(t).DB()
	svc, err := NewService(db)
	require.NoError(t, err)
	now := time.Now().UTC()
	reviewer := uuid.New()
	reason := "unreadable"

	proofs := []models.PaymentProof{
		{InvoiceID: uuid.New(), SubmittedBy: uuid.New(), Method: enums.PaymentMethodBankTransfer, EvidenceRef: "a"},
		{InvoiceID: uuid.New(), SubmittedBy: uuid.New(), Method: enums.PaymentMethodBankTransfer, EvidenceRef: "b", Verified: true, ReviewedBy: &reviewer, ReviewedAt: &now},
		{InvoiceID: uuid.New(), SubmittedBy: uuid.New(), Method: enums.PaymentMethodBankTransfer, EvidenceRef: "c", ReviewedBy: &reviewer, ReviewedAt: &now, RejectionReason: &reason},
	}
	require.NoError(t, db.Create(&proofs).Error)
	require.NoError(t, db.Create(&models.PaymentReceipt{
		Number: "RECU-1", InvoiceID: proofs[1].InvoiceID, ProofID: proofs[1].ID, AmountCents: 4200,
		Method: enums.PaymentMethodBankTransfer, IssuedBy: reviewer, PaidAt: now,
	}).Error)

	stats, err := svc.Payments(context.Background(), Window{})
	require.NoError(t, err)
	assert.Equal(t, &PaymentStats{PendingProofs: 1, ApprovedProofs: 1, RejectedProofs: 1, ReceiptsIssued: 1, CollectedCents: 4200}, stats)
}

func TestComplaintStats(t *testing.T) {
	db := dbtest.Open(t).DB()
	svc, err := NewService(db)
	require.NoError(t, err)

	damaged := &models.ComplaintReason{Name: "Damaged", IsActive: true}
	require.NoError(t, db.Create(damaged).Error)
	custom := "Wrong model"
	complaint := func(status enums.ComplaintStatus, reasonID *uuid.UUID, customReason *string) {
		require.NoError(t, db.Create(&models.Complaint{
			Reference: "RECL-" + uuid.NewString()[:12], OrderID: uuid.New(), CustomerID: uuid.New(),
			ReasonID: reasonID, CustomReason: customReason, Description: "x", Status: status,
		}).Error)
	}
	complaint(enums.ComplaintStatusOpen, &damaged.ID, nil)
	complaint(enums.ComplaintStatusResolved, &damaged.ID, nil)
	complaint(enums.ComplaintStatusOpen, nil, &custom)

	stats, err := svc.Complaints(context.Background(), Window{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, []LabelValue{{Label: "open", Value: 2}, {Label: "resolved", Value: 1}}, stats.ByStatus)
	assert.Equal(t, []LabelValue{{Label: "Damaged", Value: 2}, {Label: "Wrong model", Value: 1}}, stats.TopReasons)
}

func TestRefundStats(t *testing.T) {
	db := dbtest.Open(t).DB()
	svc, err := NewService(db)
	require.NoError(t, err)
	refund := func(status enums.RefundStatus, amount int64) {
		require.NoError(t, db.Create(&models.Refund{
			Reference: "REMB-" + uuid.NewString()[:12], OrderID: uuid.New(), InvoiceID: uuid.New(),
			AmountCents: amount, Reason: "damaged", Status: status, InitiatedBy: uuid.New(),
		}).Error)
	}
	refund(enums.RefundStatusCompleted, 1500)
	refund(enums.RefundStatusCompleted, 500)
	refund(enums.RefundStatusApproved, 700)
	refund(enums.RefundStatusRejected, 9000)

	stats, err := svc.Refunds(context.Background(), Window{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2000), stats.RefundedCents)
	assert.Equal(t, int64(700), stats.OutstandingCents)
	assert.Contains(t, stats.ByStatus, LabelValue{Label: "completed", Value: 2})
}

func TestNewServiceRequiresDB(t *testing.T) {
	_, err := NewService(nil)
	assert.Error(t, err)
}
