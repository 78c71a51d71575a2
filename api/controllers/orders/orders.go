package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/api/controllers/actorcontext"
	"github.com/equiptrade/fulfillment-backend/api/controllers/views"
	"github.com/equiptrade/fulfillment-backend/api/responses"
	"github.com/equiptrade/fulfillment-backend/api/validators"
	internalorders "github.com/equiptrade/fulfillment-backend/internal/orders"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
)

type submitItemRequest struct {
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id"`
	Quantity       int        `json:"quantity" validate:"gt=0"`
	UnitPriceCents int64      `json:"unit_price_cents" validate:"gt=0"`
}

type shippingRequest struct {
	RecipientName    string     `json:"recipient_name" validate:"required,max=200"`
	Phone            string     `json:"phone" validate:"required,max=40"`
	AddressLine      string     `json:"address_line" validate:"required,max=500"`
	City             string     `json:"city" validate:"required,max=120"`
	State            string     `json:"state" validate:"required,max=120"`
	PostalCode       *string    `json:"postal_code" validate:"omitempty,max=20"`
	Country          string     `json:"country" validate:"required,max=80"`
	ShippingOptionID *uuid.UUID `json:"shipping_option_id"`
}

type submitOrderRequest struct {
	Items         []submitItemRequest `json:"items" validate:"required,min=1,dive"`
	Shipping      shippingRequest     `json:"shipping"`
	CustomerNotes *string             `json:"customer_notes" validate:"omitempty,max=2000"`
}

// Submit turns the checkout hand-off into a pending order for the caller.
func Submit(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		customerID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.SubmitInput{
			CustomerID: customerID,
			Items:      make([]internalorders.ItemInput, 0, len(payload.Items)),
			Shipping: internalorders.ShippingInput{
				RecipientName:    payload.Shipping.RecipientName,
				Phone:            payload.Shipping.Phone,
				AddressLine:      payload.Shipping.AddressLine,
				City:             payload.Shipping.City,
				State:            payload.Shipping.State,
				PostalCode:       payload.Shipping.PostalCode,
				Country:          payload.Shipping.Country,
				ShippingOptionID: payload.Shipping.ShippingOptionID,
			},
		}
		for _, item := range payload.Items {
			input.Items = append(input.Items, internalorders.ItemInput{
				ProductID:      item.ProductID,
				VariantID:      item.VariantID,
				Quantity:       item.Quantity,
				UnitPriceCents: item.UnitPriceCents,
			})
		}
		if payload.CustomerNotes != nil {
			if notes := strings.TrimSpace(*payload.CustomerNotes); notes != "" {
				input.CustomerNotes = &notes
			}
		}

		order, err := svc.Submit(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, views.NewOrder(order))
	}
}

// ListMine pages through the caller's orders, newest first.
func ListMine(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		customerID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListForCustomer(r.Context(), customerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.NewOrderPage(page))
	}
}

// DetailMine returns one of the caller's orders.
func DetailMine(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		customerID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := actorcontext.URLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForCustomer(r.Context(), orderID, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.NewOrder(order))
	}
}
