package models

// All lists every persisted model in dependency order. It backs the sqlite
// schema used by tests and by dev runs without postgres.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&ProductVariant{},
		&ShippingType{},
		&Order{},
		&OrderItem{},
		&OrderNote{},
		&Invoice{},
		&PaymentProof{},
		&PaymentReceipt{},
		&ComplaintReason{},
		&Complaint{},
		&Refund{},
		&RefundProof{},
		&RefundReceipt{},
		&Notification{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
