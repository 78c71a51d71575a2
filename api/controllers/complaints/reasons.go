package complaints

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/equiptrade/fulfillment-backend/api/controllers/actorcontext"
	"github.com/equiptrade/fulfillment-backend/api/controllers/views"
	"github.com/equiptrade/fulfillment-backend/api/responses"
	"github.com/equiptrade/fulfillment-backend/api/validators"
	internalcomplaints "github.com/equiptrade/fulfillment-backend/internal/complaints"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
)

type reasonRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=120"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	IsActive     *bool   `json:"is_active"`
	DisplayOrder *int    `json:"display_order" validate:"omitempty,min=0"`
}

func (r reasonRequest) input() internalcomplaints.ReasonInput {
	return internalcomplaints.ReasonInput{
		Name:         r.Name,
		Description:  r.Description,
		IsActive:     r.IsActive,
		DisplayOrder: r.DisplayOrder,
	}
}

// ListReasons returns the reasons customers can pick when filing.
func ListReasons(svc internalcomplaints.Service, logg *logger.Logger) http.HandlerFunc {
	return listReasons(svc, logg, func(*http.Request) (bool, error) { return true, nil })
}

// AdminListReasons includes inactive reasons unless active=true is passed.
func AdminListReasons(svc internalcomplaints.Service, logg *logger.Logger) http.HandlerFunc {
	return listReasons(svc, logg, func(r *http.Request) (bool, error) {
		raw := strings.TrimSpace(r.URL.Query().Get("active"))
		if raw == "" {
			return false, nil
		}
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid active value")
		}
		return value, nil
	})
}

func listReasons(svc internalcomplaints.Service, logg *logger.Logger, activeOnly func(*http.Request) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "complaints service unavailable"))
			return
		}
		only, err := activeOnly(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListReasons(r.Context(), only)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.NewComplaintReasons(rows))
	}
}

func CreateReason(svc internalcomplaints.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "complaints service unavailable"))
			return
		}
		var payload reasonRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason, err := svc.CreateReason(r.Context(), payload.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, views.NewComplaintReason(reason))
	}
}

// UpdateReason patches the fields present in the body.
func UpdateReason(svc internalcomplaints.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "complaints service unavailable"))
			return
		}
		reasonID, err := actorcontext.URLParamUUID(r, "reasonId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload reasonRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason, err := svc.UpdateReason(r.Context(), reasonID, payload.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.NewComplaintReason(reason))
	}
}
