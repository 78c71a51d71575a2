package enums

import "fmt"

// InvoiceStatus maps to the invoice_status enum in Postgres.
type InvoiceStatus string

const (
	InvoiceStatusUnpaid           InvoiceStatus = "unpaid"
	InvoiceStatusPaymentSubmitted InvoiceStatus = "payment_submitted"
	InvoiceStatusPaymentRejected  InvoiceStatus = "payment_rejected"
	InvoiceStatusPaid             InvoiceStatus = "paid"
	InvoiceStatusRefunded         InvoiceStatus = "refunded"
)

var validInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusUnpaid,
	InvoiceStatusPaymentSubmitted,
	InvoiceStatusPaymentRejected,
	InvoiceStatusPaid,
	InvoiceStatusRefunded,
}

func (s InvoiceStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical enum.
func (s InvoiceStatus) IsValid() bool {
	for _, candidate := range validInvoiceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// AcceptsPaymentProof reports whether a customer may submit a proof in this state.
func (s InvoiceStatus) AcceptsPaymentProof() bool {
	return s == InvoiceStatusUnpaid || s == InvoiceStatusPaymentRejected
}

// ParseInvoiceStatus converts raw input into InvoiceStatus.
func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	for _, candidate := range validInvoiceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice status %q", value)
}
