package notifications

import (
	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/pkg/enums"
)

// Refs links a notification to the documents that caused it.
type Refs struct {
	OrderID     *uuid.UUID
	InvoiceID   *uuid.UUID
	ComplaintID *uuid.UUID
	RefundID    *uuid.UUID
}

// Notice is the content of a notification independent of its recipient.
type Notice struct {
	Kind    enums.NotificationKind
	Title   string
	Message string
	Refs    Refs
}

// Event is a notification request produced by a domain operation. Either
// RecipientID is set or Operators is true.
type Event struct {
	RecipientID uuid.UUID
	Operators   bool
	Notice      Notice
}

// ToUser addresses a notice to a single user.
func ToUser(recipientID uuid.UUID, notice Notice) Event {
	return Event{RecipientID: recipientID, Notice: notice}
}

// ToOperators addresses a notice to every active operator.
func ToOperators(notice Notice) Event {
	return Event{Operators: true, Notice: notice}
}

// Recipient is the contact information used for out-of-band copies.
type Recipient struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// Ref returns a pointer to id for use in Refs.
func Ref(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
