package enums

import "fmt"

// RefundStatus maps to the refund_status enum in Postgres.
type RefundStatus string

const (
	RefundStatusPending    RefundStatus = "pending"
	RefundStatusApproved   RefundStatus = "approved"
	RefundStatusProcessing RefundStatus = "processing"
	RefundStatusCompleted  RefundStatus = "completed"
	RefundStatusRejected   RefundStatus = "rejected"
)

var validRefundStatuses = []RefundStatus{
	RefundStatusPending,
	RefundStatusApproved,
	RefundStatusProcessing,
	RefundStatusCompleted,
	RefundStatusRejected,
}

func (s RefundStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical enum.
func (s RefundStatus) IsValid() bool {
	for _, candidate := range validRefundStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRefundStatus converts raw input into RefundStatus.
func ParseRefundStatus(value string) (RefundStatus, error) {
	for _, candidate := range validRefundStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund status %q", value)
}

// RefundMethod enumerates how money travels back to the customer.
type RefundMethod string

const (
	RefundMethodBaridiMob    RefundMethod = "baridimob"
	RefundMethodCCP          RefundMethod = "ccp"
	RefundMethodBankTransfer RefundMethod = "bank_transfer"
	RefundMethodCash         RefundMethod = "cash"
	RefundMethodOther        RefundMethod = "other"
)

var validRefundMethods = []RefundMethod{
	RefundMethodBaridiMob,
	RefundMethodCCP,
	RefundMethodBankTransfer,
	RefundMethodCash,
	RefundMethodOther,
}

// IsValid reports whether the value matches the canonical enum.
func (m RefundMethod) IsValid() bool {
	for _, candidate := range validRefundMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseRefundMethod converts raw input into RefundMethod.
func ParseRefundMethod(value string) (RefundMethod, error) {
	for _, candidate := range validRefundMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund method %q", value)
}
