package enums

import "fmt"

// NotificationKind maps to the notification_kind enum in Postgres.
type NotificationKind string

const (
	NotificationOrderCreated       NotificationKind = "order_created"
	NotificationOrderConfirmed     NotificationKind = "order_confirmed"
	NotificationOrderRejected      NotificationKind = "order_rejected"
	NotificationOrderProcessing    NotificationKind = "order_processing"
	NotificationOrderShipped       NotificationKind = "order_shipped"
	NotificationOrderDelivered     NotificationKind = "order_delivered"
	NotificationOrderCancelled     NotificationKind = "order_cancelled"
	NotificationInvoiceGenerated   NotificationKind = "invoice_generated"
	NotificationPaymentSubmitted   NotificationKind = "payment_submitted"
	NotificationPaymentVerified    NotificationKind = "payment_verified"
	NotificationPaymentRejected    NotificationKind = "payment_rejected"
	NotificationComplaintCreated   NotificationKind = "complaint_created"
	NotificationComplaintUpdated   NotificationKind = "complaint_updated"
	NotificationRefundInitiated    NotificationKind = "refund_initiated"
	NotificationRefundCompleted    NotificationKind = "refund_completed"
	NotificationSystemAnnouncement NotificationKind = "system"
)

var validNotificationKinds = []NotificationKind{
	NotificationOrderCreated,
	NotificationOrderConfirmed,
	NotificationOrderRejected,
	NotificationOrderProcessing,
	NotificationOrderShipped,
	NotificationOrderDelivered,
	NotificationOrderCancelled,
	NotificationInvoiceGenerated,
	NotificationPaymentSubmitted,
	NotificationPaymentVerified,
	NotificationPaymentRejected,
	NotificationComplaintCreated,
	NotificationComplaintUpdated,
	NotificationRefundInitiated,
	NotificationRefundCompleted,
	NotificationSystemAnnouncement,
}

func (k NotificationKind) String() string {
	return string(k)
}

// IsValid checks whether the given kind matches the canonical enum.
func (k NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw strings into NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
