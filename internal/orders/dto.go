package orders

import (
	"strings"

	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	"github.com/equiptrade/fulfillment-backend/pkg/pagination"
)

// ItemInput is one cart line handed over by checkout. The unit price is the
// snapshot taken at checkout and is not re-priced here.
type ItemInput struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	Quantity       int
	UnitPriceCents int64
}

// ShippingInput captures the delivery address and chosen shipping option.
type ShippingInput struct {
	RecipientName    string
	Phone            string
	AddressLine      string
	City             string
	State            string
	PostalCode       *string
	Country          string
	ShippingOptionID *uuid.UUID
}

// SubmitInput is everything needed to turn a cart into an order.
type SubmitInput struct {
	CustomerID    uuid.UUID
	Items         []ItemInput
	Shipping      ShippingInput
	CustomerNotes *string
}

// AnnotateInput upserts the operator note attached to an order.
type AnnotateInput struct {
	OrderID     uuid.UUID
	AuthorID    uuid.UUID
	Body        string
	Attachments []string
}

// TransitionInput moves a locked order to a new status. Updates carries extra
// columns written alongside the status.
type TransitionInput struct {
	Order   *models.Order
	To      enums.OrderStatus
	ActorID uuid.UUID
	Role    enums.UserRole
	Updates map[string]any
}

// ListParams filters the operator order listing.
type ListParams struct {
	Status     *enums.OrderStatus
	Pagination pagination.Params
}

func (s ShippingInput) missingFields() []string {
	required := map[string]string{
		"recipient_name": s.RecipientName,
		"phone":          s.Phone,
		"address_line":   s.AddressLine,
		"city":           s.City,
		"state":          s.State,
		"country":        s.Country,
	}
	var missing []string
	for _, key := range []string{"recipient_name", "phone", "address_line", "city", "state", "country"} {
		if strings.TrimSpace(required[key]) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
