package views

import (
	"time"

	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
)

type Complaint struct {
	ID              uuid.UUID             `json:"id"`
	Reference       string                `json:"reference"`
	OrderID         uuid.UUID             `json:"order_id"`
	InvoiceID       *uuid.UUID            `json:"invoice_id,omitempty"`
	CustomerID      uuid.UUID             `json:"customer_id"`
	ReasonID        *uuid.UUID            `json:"reason_id,omitempty"`
	CustomReason    *string               `json:"custom_reason,omitempty"`
	Description     string                `json:"description"`
	Attachments     []string              `json:"attachments"`
	Status          enums.ComplaintStatus `json:"status"`
	AdminNotes      *string               `json:"admin_notes,omitempty"`
	ResolutionNotes *string               `json:"resolution_notes,omitempty"`
	HandledBy       *uuid.UUID            `json:"handled_by,omitempty"`
	ResolvedAt      *time.Time            `json:"resolved_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

// NewComplaint maps a complaint. Operator notes are only included when
// withAdminNotes is set.
func NewComplaint(c *models.Complaint, withAdminNotes bool) Complaint {
	attachments := []string(c.Attachments)
	if attachments == nil {
		attachments = []string{}
	}
	view := Complaint{
		ID:              c.ID,
		Reference:       c.Reference,
		OrderID:         c.OrderID,
		InvoiceID:       c.InvoiceID,
		CustomerID:      c.CustomerID,
		ReasonID:        c.ReasonID,
		CustomReason:    c.CustomReason,
		Description:     c.Description,
		Attachments:     attachments,
		Status:          c.Status,
		ResolutionNotes: c.ResolutionNotes,
		HandledBy:       c.HandledBy,
		ResolvedAt:      c.ResolvedAt,
		CreatedAt:       c.CreatedAt,
	}
	if withAdminNotes {
		view.AdminNotes = c.AdminNotes
	}
	return view
}

func NewComplaintPage(page *pagination.Page[models.Complaint], withAdminNotes bool) pagination.Page[Complaint] {
	return mapPage(page, func(c *models.Complaint) Complaint {
		return NewComplaint(c, withAdminNotes)
	})
}

type ComplaintReason struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	IsActive     bool      `json:"is_active"`
	DisplayOrder int       `json:"display_order"`
}

func NewComplaintReason(r *models.ComplaintReason) ComplaintReason {
	return ComplaintReason{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		IsActive:     r.IsActive,
		DisplayOrder: r.DisplayOrder,
	}
}

func NewComplaintReasons(rows []models.ComplaintReason) []ComplaintReason {
	out := make([]ComplaintReason, 0, len(rows))
	for i := range rows {
		out = append(out, NewComplaintReason(&rows[i]))
	}
	return out
}
