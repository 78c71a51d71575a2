package reports

import "time"

// Window restricts a report to rows created within [Start, End]. A zero
// bound is open.
type Window struct {
	Start time.Time
	End   time.Time
}

// LabelValue is one bucket of a grouped count.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// OrderStats summarises orders by status and booked revenue.
type OrderStats struct {
	Total             int64        `json:"total"`
	ByStatus          []LabelValue `json:"by_status"`
	RevenueCents      int64        `json:"revenue_cents"`
	AverageOrderCents int64        `json:"average_order_cents"`
}

// PaymentStats summarises payment proof review outcomes and collected money.
type PaymentStats struct {
	PendingProofs  int64 `json:"pending_proofs"`
	ApprovedProofs int64 `json:"approved_proofs"`
	RejectedProofs int64 `json:"rejected_proofs"`
	ReceiptsIssued int64 `json:"receipts_issued"`
	CollectedCents int64 `json:"collected_cents"`
}

// ComplaintStats summarises complaints by status and by reason.
type ComplaintStats struct {
	Total      int64        `json:"total"`
	ByStatus   []LabelValue `json:"by_status"`
	TopReasons []LabelValue `json:"top_reasons"`
}

// RefundStats summarises refunds by status and amounts returned.
type RefundStats struct {
	Total            int64        `json:"total"`
	ByStatus         []LabelValue `json:"by_status"`
	RefundedCents    int64        `json:"refunded_cents"`
	OutstandingCents int64        `json:"outstanding_cents"`
}
