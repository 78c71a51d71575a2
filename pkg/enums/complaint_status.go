package enums

import "fmt"

// ComplaintStatus maps to the complaint_status enum in Postgres.
type ComplaintStatus string

const (
	ComplaintStatusOpen         ComplaintStatus = "open"
	ComplaintStatusInReview     ComplaintStatus = "in_review"
	ComplaintStatusAwaitingUser ComplaintStatus = "awaiting_user"
	ComplaintStatusResolved     ComplaintStatus = "resolved"
	ComplaintStatusRejected     ComplaintStatus = "rejected"
)

var validComplaintStatuses = []ComplaintStatus{
	ComplaintStatusOpen,
	ComplaintStatusInReview,
	ComplaintStatusAwaitingUser,
	ComplaintStatusResolved,
	ComplaintStatusRejected,
}

func (s ComplaintStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical enum.
func (s ComplaintStatus) IsValid() bool {
	for _, candidate := range validComplaintStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsClosed reports whether the complaint has reached a final state.
func (s ComplaintStatus) IsClosed() bool {
	return s == ComplaintStatusResolved || s == ComplaintStatusRejected
}

// ParseComplaintStatus converts raw input into ComplaintStatus.
func ParseComplaintStatus(value string) (ComplaintStatus, error) {
	for _, candidate := range validComplaintStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid complaint status %q", value)
}
