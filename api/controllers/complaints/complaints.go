package complaints

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/api/controllers/actorcontext"
	"github.com/equiptrade/fulfillment-backend/api/controllers/views"
	"github.com/equiptrade/fulfillment-backend/api/responses"
	"github.com/equiptrade/fulfillment-backend/api/validators"
	internalcomplaints "github.com/equiptrade/fulfillment-backend/internal/complaints"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
)

type fileRequest struct {
	ReasonID     *uuid.UUID `json:"reason_id"`
	CustomReason *string    `json:"custom_reason" validate:"omitempty,max=200"`
	Description  string     `json:"description" validate:"required,max=5000"`
	Attachments  []string   `json:"attachments" validate:"omitempty,max=10,dive,required"`
}

type statusRequest struct {
	Status          string  `json:"status" validate:"required"`
	AdminNotes      *string `json:"admin_notes" validate:"omitempty,max=5000"`
	ResolutionNotes *string `json:"resolution_notes" validate:"omitempty,max=5000"`
}

// File opens a complaint against one of the caller's delivered orders.
func File(svc internalcomplaints.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "complaints service unavailable"))
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

		var payload fileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		complaint, err := svc.File(r.Context(), internalcomplaints.FileInput{
			OrderID:      orderID,
			CustomerID:   customerID,
			ReasonID:     payload.ReasonID,
			CustomReason: payload.CustomReason,
			Description:  payload.Description,
			Attachments:  payload.Attachments,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, views.NewComplaint(complaint, false))
	}
}

func ListMine(svc internalcomplaints.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "complaints service unavailable"))
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
		responses.WriteSuccess(w, views.NewComplaintPage(page, false))
	}
}

func DetailMine(svc internalcomplaints.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "complaints service unavailable"))
			return
		}
		customerID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		complaintID, err := actorcontext.URLParamUUID(r, "complaintId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		complaint, err := svc.GetForCustomer(r.Context(), complaintID, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.NewComplaint(complaint, false))
	}
}

// AdminList pages through complaints for operators, optionally by status.
func AdminList(svc internalcomplaints.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "complaints service unavailable"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := internalcomplaints.ListParams{Pagination: page}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseComplaintStatus(raw)
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
		responses.WriteSuccess(w, views.NewComplaintPage(list, true))
	}
}

func AdminDetail(svc internalcomplaints.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "complaints service unavailable"))
			return
		}
		complaintID, err := actorcontext.URLParamUUID(r, "complaintId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		complaint, err := svc.Get(r.Context(), complaintID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.NewComplaint(complaint, true))
	}
}

// UpdateStatus moves a complaint forward and records operator notes.
func UpdateStatus(svc internalcomplaints.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "complaints service unavailable"))
			return
		}
		operatorID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		complaintID, err := actorcontext.URLParamUUID(r, "complaintId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload statusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseComplaintStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		complaint, err := svc.UpdateStatus(r.Context(), internalcomplaints.UpdateStatusInput{
			ComplaintID:     complaintID,
			OperatorID:      operatorID,
			Status:          status,
			AdminNotes:      payload.AdminNotes,
			ResolutionNotes: payload.ResolutionNotes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.NewComplaint(complaint, true))
	}
}
