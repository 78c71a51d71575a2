package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/api/controllers/actorcontext"
	"github.com/equiptrade/fulfillment-backend/api/controllers/views"
	"github.com/equiptrade/fulfillment-backend/api/responses"
	"github.com/equiptrade/fulfillment-backend/api/validators"
	internalorders "github.com/equiptrade/fulfillment-backend/internal/orders"
	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
)

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type shipRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"required,max=120"`
}

type noteRequest struct {
	Body        string   `json:"body" validate:"required,max=5000"`
	Attachments []string `json:"attachments" validate:"omitempty,max=10,dive,required"`
}

type confirmResponse struct {
	Order   views.Order   `json:"order"`
	Invoice views.Invoice `json:"invoice"`
}

// AdminList pages through every order, optionally filtered by status.
func AdminList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := internalorders.ListParams{Pagination: page}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = &status
		}

		list, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.NewOrderPage(list))
	}
}

func AdminDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := actorcontext.URLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.NewOrder(order))
	}
}

// Confirm accepts a pending order and returns it with its new invoice.
func Confirm(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, operatorID, err := operatorTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, invoice, err := svc.Confirm(r.Context(), orderID, operatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, confirmResponse{
			Order:   views.NewOrder(order),
			Invoice: views.NewInvoice(invoice),
		})
	}
}

func Reject(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc, logg, func(ctx context.Context, r *http.Request, orderID, operatorID uuid.UUID) (*models.Order, error) {
		var payload rejectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.Reject(ctx, orderID, operatorID, payload.Reason)
	})
}

func MarkProcessing(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc, logg, func(ctx context.Context, _ *http.Request, orderID, operatorID uuid.UUID) (*models.Order, error) {
		return svc.MarkProcessing(ctx, orderID, operatorID)
	})
}

func MarkShipped(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc, logg, func(ctx context.Context, r *http.Request, orderID, operatorID uuid.UUID) (*models.Order, error) {
		var payload shipRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.MarkShipped(ctx, orderID, operatorID, payload.TrackingNumber)
	})
}

func MarkDelivered(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc, logg, func(ctx context.Context, _ *http.Request, orderID, operatorID uuid.UUID) (*models.Order, error) {
		return svc.MarkDelivered(ctx, orderID, operatorID)
	})
}

func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transition(svc, logg, func(ctx context.Context, _ *http.Request, orderID, operatorID uuid.UUID) (*models.Order, error) {
		return svc.Cancel(ctx, orderID, operatorID)
	})
}

// Annotate creates or replaces the operator note on an order.
func Annotate(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, operatorID, err := operatorTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload noteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		note, err := svc.Annotate(r.Context(), internalorders.AnnotateInput{
			OrderID:     orderID,
			AuthorID:    operatorID,
			Body:        payload.Body,
			Attachments: payload.Attachments,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.NewOrderNote(note))
	}
}

type transitionFunc func(ctx context.Context, r *http.Request, orderID, operatorID uuid.UUID) (*models.Order, error)

func transition(svc internalorders.Service, logg *logger.Logger, fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, operatorID, err := operatorTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, orderID.String())
		}
		order, err := fn(ctx, r, orderID, operatorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithField(ctx, "status", string(order.Status)), "order.transitioned")
		}
		responses.WriteSuccess(w, views.NewOrder(order))
	}
}

func operatorTarget(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	operatorID, err := actorcontext.ResolveUserID(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	orderID, err := actorcontext.URLParamUUID(r, "orderId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return orderID, operatorID, nil
}
