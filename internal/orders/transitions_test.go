package orders

import (
	"testing"
	"time"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to enums.OrderStatus
		want     bool
	}{
		{enums.OrderStatusPendingConfirmation, enums.OrderStatusConfirmed, true},
		{enums.OrderStatusPendingConfirmation, enums.OrderStatusRejected, true},
		{enums.OrderStatusPendingConfirmation, enums.OrderStatusAwaitingPayment, false},
		{enums.OrderStatusConfirmed, enums.OrderStatusAwaitingPayment, true},
		{enums.OrderStatusAwaitingPayment, enums.OrderStatusCancelled, true},
		{enums.OrderStatusPaymentUnderReview, enums.OrderStatusCancelled, false},
		{enums.OrderStatusPaymentUnderReview, enums.OrderStatusPaid, true},
		{enums.OrderStatusPaid, enums.OrderStatusShipped, false},
		{enums.OrderStatusShipped, enums.OrderStatusRefundPending, true},
		{enums.OrderStatusDelivered, enums.OrderStatusRefundPending, true},
		{enums.OrderStatusRefundPending, enums.OrderStatusRefunded, true},
		{enums.OrderStatusRefunded, enums.OrderStatusRefundPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, status := range enums.OrderStatuses() {
		if !status.IsTerminal() {
			continue
		}
		for _, to := range enums.OrderStatuses() {
			if CanTransition(status, to) {
				t.Fatalf("terminal status %s allows %s", status, to)
			}
		}
	}
}

func TestStampSetsTimestamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	order := &models.Order{}
	if col := stamp(order, enums.OrderStatusShipped, at); col != "shipped_at" {
		t.Fatalf("unexpected column %q", col)
	}
	if order.ShippedAt == nil || !order.ShippedAt.Equal(at) {
		t.Fatalf("shipped_at not set: %v", order.ShippedAt)
	}
	if col := stamp(order, enums.OrderStatusAwaitingPayment, at); col != "" {
		t.Fatalf("awaiting_payment should not stamp, got %q", col)
	}
}
