package reports

import (
	"context"
	"net/http"

	"github.com/equiptrade/fulfillment-backend/api/responses"
	internalreports "github.com/equiptrade/fulfillment-backend/internal/reports"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
)

type reportFunc[T any] func(ctx context.Context, window internalreports.Window) (*T, error)

func Orders(svc internalreports.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return serve(svc.Orders, logg)
}

func Payments(svc internalreports.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return serve(svc.Payments, logg)
}

func Complaints(svc internalreports.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return serve(svc.Complaints, logg)
}

func Refunds(svc internalreports.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable(logg)
	}
	return serve(svc.Refunds, logg)
}

func serve[T any](fn reportFunc[T], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		window, err := resolveWindow(r, timeNowUTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := fn(ctx, window)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func unavailable(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
	}
}
