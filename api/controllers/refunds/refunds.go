package refunds

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/api/controllers/actorcontext"
	"github.com/equiptrade/fulfillment-backend/api/controllers/views"
	"github.com/equiptrade/fulfillment-backend/api/responses"
	"github.com/equiptrade/fulfillment-backend/api/validators"
	internalrefunds "github.com/equiptrade/fulfillment-backend/internal/refunds"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
)

type initiateRequest struct {
	AmountCents int64      `json:"amount_cents" validate:"gt=0"`
	Reason      string     `json:"reason" validate:"required,max=2000"`
	ComplaintID *uuid.UUID `json:"complaint_id"`
}

type proofRequest struct {
	Method               string  `json:"method" validate:"required"`
	EvidenceRef          string  `json:"evidence_ref" validate:"required,max=1000"`
	TransactionReference *string `json:"transaction_reference" validate:"omitempty,max=200"`
	Notes                *string `json:"notes" validate:"omitempty,max=2000"`
}

type completionResponse struct {
	Refund  views.Refund         `json:"refund"`
	Proof   *views.RefundProof   `json:"proof,omitempty"`
	Receipt *views.RefundReceipt `json:"receipt,omitempty"`
}

type detailResponse struct {
	Refund  views.Refund         `json:"refund"`
	Receipt *views.RefundReceipt `json:"receipt,omitempty"`
}

// Initiate opens an approved refund against the order's paid invoice.
func Initiate(svc internalrefunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refunds service unavailable"))
			return
		}
		operatorID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := actorcontext.URLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload initiateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refund, err := svc.Initiate(r.Context(), internalrefunds.InitiateInput{
			OrderID:     orderID,
			OperatorID:  operatorID,
			AmountCents: payload.AmountCents,
			Reason:      payload.Reason,
			ComplaintID: payload.ComplaintID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, views.NewRefund(refund))
	}
}

// UploadProof records how the money went back and completes the refund.
func UploadProof(svc internalrefunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refunds service unavailable"))
			return
		}
		operatorID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		refundID, err := actorcontext.URLParamUUID(r, "refundId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload proofRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParseRefundMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid refund method"))
			return
		}

		result, err := svc.UploadProof(r.Context(), internalrefunds.UploadProofInput{
			RefundID:             refundID,
			OperatorID:           operatorID,
			Method:               method,
			EvidenceRef:          payload.EvidenceRef,
			TransactionReference: payload.TransactionReference,
			Notes:                payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, completionResponse{
			Refund:  views.NewRefund(result.Refund),
			Proof:   views.NewRefundProof(result.Proof),
			Receipt: views.NewRefundReceipt(result.Receipt),
		})
	}
}

func Detail(svc internalrefunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refunds service unavailable"))
			return
		}
		refundID, err := actorcontext.URLParamUUID(r, "refundId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		refund, err := svc.Get(r.Context(), refundID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := detailResponse{Refund: views.NewRefund(refund)}
		if refund.Status == enums.RefundStatusCompleted {
			receipt, err := svc.GetReceipt(r.Context(), refund.ID)
			if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			out.Receipt = views.NewRefundReceipt(receipt)
		}
		responses.WriteSuccess(w, out)
	}
}

// ListForOrder returns every refund recorded against an order.
func ListForOrder(svc internalrefunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refunds service unavailable"))
			return
		}
		orderID, err := actorcontext.URLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListForOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.NewRefunds(rows))
	}
}

func List(svc internalrefunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refunds service unavailable"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := internalrefunds.ListParams{Pagination: page}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseRefundStatus(raw)
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
		responses.WriteSuccess(w, views.NewRefundPage(list))
	}
}
