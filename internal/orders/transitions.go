package orders

import (
	"time"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
)

// transitions is the closed set of allowed order status moves.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPendingConfirmation: {enums.OrderStatusConfirmed, enums.OrderStatusRejected},
	enums.OrderStatusConfirmed:           {enums.OrderStatusAwaitingPayment},
	enums.OrderStatusAwaitingPayment:     {enums.OrderStatusPaymentUnderReview, enums.OrderStatusCancelled},
	enums.OrderStatusPaymentUnderReview:  {enums.OrderStatusPaid},
	enums.OrderStatusPaid:                {enums.OrderStatusProcessing, enums.OrderStatusRefundPending},
	enums.OrderStatusProcessing:          {enums.OrderStatusShipped, enums.OrderStatusRefundPending},
	enums.OrderStatusShipped:             {enums.OrderStatusDelivered, enums.OrderStatusRefundPending},
	enums.OrderStatusDelivered:           {enums.OrderStatusRefundPending},
	enums.OrderStatusRefundPending:       {enums.OrderStatusRefunded},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// isNoopTransition covers a resubmitted payment proof while one is already
// under review.
func isNoopTransition(from, to enums.OrderStatus) bool {
	return from == to && from == enums.OrderStatusPaymentUnderReview
}

// stamp records the entry time for status on order and returns the column to
// persist, or "" when the status carries no timestamp.
func stamp(order *models.Order, status enums.OrderStatus, at time.Time) string {
	switch status {
	case enums.OrderStatusConfirmed:
		order.ConfirmedAt = &at
		return "confirmed_at"
	case enums.OrderStatusRejected:
		order.RejectedAt = &at
		return "rejected_at"
	case enums.OrderStatusPaid:
		order.PaidAt = &at
		return "paid_at"
	case enums.OrderStatusProcessing:
		order.ProcessingAt = &at
		return "processing_at"
	case enums.OrderStatusShipped:
		order.ShippedAt = &at
		return "shipped_at"
	case enums.OrderStatusDelivered:
		order.DeliveredAt = &at
		return "delivered_at"
	case enums.OrderStatusCancelled:
		order.CancelledAt = &at
		return "cancelled_at"
	case enums.OrderStatusRefundPending:
		order.RefundPendingAt = &at
		return "refund_pending_at"
	case enums.OrderStatusRefunded:
		order.RefundedAt = &at
		return "refunded_at"
	default:
		return ""
	}
}
