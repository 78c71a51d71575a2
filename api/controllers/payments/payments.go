package payments

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/api/controllers/actorcontext"
	"github.com/equiptrade/fulfillment-backend/api/controllers/views"
	"github.com/equiptrade/fulfillment-backend/api/responses"
	"github.com/equiptrade/fulfillment-backend/api/validators"
	internalpayments "github.com/equiptrade/fulfillment-backend/internal/payments"
	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
)

// InvoiceReader loads invoices outside a transaction.
type InvoiceReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
}

type submitProofRequest struct {
	Method               string  `json:"method" validate:"required"`
	EvidenceRef          string  `json:"evidence_ref" validate:"required,max=1000"`
	TransactionReference *string `json:"transaction_reference" validate:"omitempty,max=200"`
	Notes                *string `json:"notes" validate:"omitempty,max=2000"`
}

type verifyRequest struct {
	Approve         *bool  `json:"approve" validate:"required"`
	RejectionReason string `json:"rejection_reason" validate:"max=2000"`
}

type invoiceResponse struct {
	Invoice views.Invoice         `json:"invoice"`
	Proofs  []views.PaymentProof  `json:"proofs"`
	Receipt *views.PaymentReceipt `json:"receipt,omitempty"`
}

type verifyResponse struct {
	Proof   views.PaymentProof    `json:"proof"`
	Invoice views.Invoice         `json:"invoice"`
	Receipt *views.PaymentReceipt `json:"receipt,omitempty"`
}

// InvoiceDetail returns one of the caller's invoices with its proof history
// and, once paid, the receipt.
func InvoiceDetail(invoices InvoiceReader, svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if invoices == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}
		customerID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceID, err := actorcontext.URLParamUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := invoices.Get(r.Context(), invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if invoice.CustomerID != customerID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "invoice does not belong to customer"))
			return
		}

		proofs, err := svc.ListProofs(r.Context(), invoice.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := invoiceResponse{
			Invoice: views.NewInvoice(invoice),
			Proofs:  views.NewPaymentProofs(proofs),
		}
		if invoice.PaidAt != nil {
			receipt, err := svc.GetReceipt(r.Context(), invoice.ID)
			if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			out.Receipt = views.NewPaymentReceipt(receipt)
		}
		responses.WriteSuccess(w, out)
	}
}

// SubmitProof records the caller's evidence of payment for an invoice.
func SubmitProof(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}
		customerID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceID, err := actorcontext.URLParamUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitProofRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		proof, err := svc.SubmitProof(r.Context(), internalpayments.SubmitProofInput{
			InvoiceID:            invoiceID,
			CustomerID:           customerID,
			Method:               method,
			EvidenceRef:          payload.EvidenceRef,
			TransactionReference: payload.TransactionReference,
			Notes:                payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, views.NewPaymentProof(proof))
	}
}

// ListPending returns proofs waiting for an operator decision, oldest first.
func ListPending(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListPending(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.NewPaymentProofPage(page))
	}
}

// Verify approves or rejects a pending proof.
func Verify(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}
		operatorID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		proofID, err := actorcontext.URLParamUUID(r, "proofId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload verifyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Verify(r.Context(), internalpayments.VerifyInput{
			ProofID:         proofID,
			OperatorID:      operatorID,
			Approve:         *payload.Approve,
			RejectionReason: payload.RejectionReason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, verifyResponse{
			Proof:   views.NewPaymentProof(result.Proof),
			Invoice: views.NewInvoice(result.Invoice),
			Receipt: views.NewPaymentReceipt(result.Receipt),
		})
	}
}
