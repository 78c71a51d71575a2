package views

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
)

func TestNewOrderCarriesItemsAndNote(t *testing.T) {
	author := uuid.New()
	order := &models.Order{
		ID:            uuid.New(),
		Reference:     "CMD-1",
		Status:        enums.OrderStatusAwaitingPayment,
		SubtotalCents: 3500,
		ShippingCents: 300,
		TotalCents:    3800,
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductName: "Drill", Quantity: 2, UnitPriceCents: 1000, LineTotalCents: 2000},
		},
		Note: &models.OrderNote{Body: "fragile", AuthorID: &author},
	}

	view := NewOrder(order)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Drill", view.Items[0].ProductName)
	require.NotNil(t, view.Note)
	assert.Equal(t, []string{}, view.Note.Attachments)
	assert.Equal(t, int64(3800), view.TotalCents)
}

func TestNewOrderWithoutRelations(t *testing.T) {
	view := NewOrder(&models.Order{ID: uuid.New()})
	assert.NotNil(t, view.Items)
	assert.Empty(t, view.Items)
	assert.Nil(t, view.Note)
}

func TestNewComplaintHidesAdminNotes(t *testing.T) {
	notes := "customer is a repeat claimant"
	complaint := &models.Complaint{
		ID:          uuid.New(),
		AdminNotes:  &notes,
		Attachments: pq.StringArray{"uploads/photo.jpg"},
		Status:      enums.ComplaintStatusInReview,
	}

	assert.Nil(t, NewComplaint(complaint, false).AdminNotes)
	assert.Equal(t, &notes, NewComplaint(complaint, true).AdminNotes)
	assert.Equal(t, []string{"uploads/photo.jpg"}, NewComplaint(complaint, false).Attachments)
}

func TestMapPageKeepsCursor(t *testing.T) {
	now := time.Now()
	page := &pagination.Page[models.Notification]{
		Items:      []models.Notification{{ID: uuid.New(), ReadAt: &now}, {ID: uuid.New()}},
		NextCursor: "abc",
	}
	out := NewNotificationPage(page)
	require.Len(t, out.Items, 2)
	assert.True(t, out.Items[0].Read)
	assert.False(t, out.Items[1].Read)
	assert.Equal(t, "abc", out.NextCursor)

	empty := NewNotificationPage(nil)
	assert.NotNil(t, empty.Items)
}

func TestNilReceiptsStayNil(t *testing.T) {
	assert.Nil(t, NewPaymentReceipt(nil))
	assert.Nil(t, NewRefundReceipt(nil))
	assert.Nil(t, NewRefundProof(nil))
}
