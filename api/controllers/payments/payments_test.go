package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/api/middleware"
	internalpayments "github.com/equiptrade/fulfillment-backend/internal/payments"
	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
)

type stubService struct {
	internalpayments.Service
	submitFn     func(ctx context.Context, input internalpayments.SubmitProofInput) (*models.PaymentProof, error)
	verifyFn     func(ctx context.Context, input internalpayments.VerifyInput) (*internalpayments.VerifyResult, error)
	listProofsFn func(ctx context.Context, invoiceID uuid.UUID) ([]models.PaymentProof, error)
	receiptFn    func(ctx context.Context, invoiceID uuid.UUID) (*models.PaymentReceipt, error)
}

func (s *stubService) SubmitProof(ctx context.Context, input internalpayments.SubmitProofInput) (*models.PaymentProof, error) {
	return s.submitFn(ctx, input)
}

func (s *stubService) Verify(ctx context.Context, input internalpayments.VerifyInput) (*internalpayments.VerifyResult, error) {
	return s.verifyFn(ctx, input)
}

func (s *stubService) ListProofs(ctx context.Context, invoiceID uuid.UUID) ([]models.PaymentProof, error) {
	return s.listProofsFn(ctx, invoiceID)
}

func (s *stubService) GetReceipt(ctx context.Context, invoiceID uuid.UUID) (*models.PaymentReceipt, error) {
	return s.receiptFn(ctx, invoiceID)
}

type stubInvoices map[uuid.UUID]*models.Invoice

func (s stubInvoices) Get(_ context.Context, id uuid.UUID) (*models.Invoice, error) {
	if inv, ok := s[id]; ok {
		return inv, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func request(method, body string, userID uuid.UUID, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/", reader)
	ctx := middleware.WithUserID(req.Context(), userID.String())
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rc))
}

func TestSubmitProofCreated(t *testing.T) {
	customerID := uuid.New()
	invoiceID := uuid.New()
	svc := &stubService{submitFn: func(_ context.Context, input internalpayments.SubmitProofInput) (*models.PaymentProof, error) {
		if input.CustomerID != customerID || input.InvoiceID != invoiceID {
			t.Fatalf("unexpected ids %+v", input)
		}
		if input.Method != enums.PaymentMethodBaridiMob {
			t.Fatalf("unexpected method %s", input.Method)
		}
		return &models.PaymentProof{ID: uuid.New(), InvoiceID: invoiceID, Method: input.Method, EvidenceRef: input.EvidenceRef}, nil
	}}

	req := request(http.MethodPost, `{"method":"baridimob","evidence_ref":"uploads/receipt.png"}`, customerID, map[string]string{"invoiceId": invoiceID.String()})
	resp := httptest.NewRecorder()
	SubmitProof(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			Pending bool   `json:"pending"`
			Method  string `json:"method"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !envelope.Data.Pending || envelope.Data.Method != "baridimob" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestSubmitProofRejectsUnknownMethod(t *testing.T) {
	req := request(http.MethodPost, `{"method":"bitcoin","evidence_ref":"x"}`, uuid.New(), map[string]string{"invoiceId": uuid.NewString()})
	resp := httptest.NewRecorder()
	SubmitProof(&stubService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSubmitProofSurfacesConflict(t *testing.T) {
	svc := &stubService{submitFn: func(context.Context, internalpayments.SubmitProofInput) (*models.PaymentProof, error) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice already has a pending proof")
	}}
	req := request(http.MethodPost, `{"method":"ccp_cheque","evidence_ref":"x"}`, uuid.New(), map[string]string{"invoiceId": uuid.NewString()})
	resp := httptest.NewRecorder()
	SubmitProof(svc, testLogger())(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestVerifyRequiresDecision(t *testing.T) {
	svc := &stubService{verifyFn: func(context.Context, internalpayments.VerifyInput) (*internalpayments.VerifyResult, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	req := request(http.MethodPost, `{"rejection_reason":"blurry"}`, uuid.New(), map[string]string{"proofId": uuid.NewString()})
	resp := httptest.NewRecorder()
	Verify(svc, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVerifyApproveReturnsReceipt(t *testing.T) {
	operatorID := uuid.New()
	proofID := uuid.New()
	svc := &stubService{verifyFn: func(_ context.Context, input internalpayments.VerifyInput) (*internalpayments.VerifyResult, error) {
		if !input.Approve || input.ProofID != proofID || input.OperatorID != operatorID {
			t.Fatalf("unexpected input %+v", input)
		}
		now := time.Now()
		return &internalpayments.VerifyResult{
			Proof:   &models.PaymentProof{ID: proofID, Verified: true, ReviewedAt: &now},
			Invoice: &models.Invoice{ID: uuid.New(), Status: enums.InvoiceStatusPaid},
			Receipt: &models.PaymentReceipt{ID: uuid.New(), Number: "REC-1", AmountCents: 3800},
		}, nil
	}}
	req := request(http.MethodPost, `{"approve":true}`, operatorID, map[string]string{"proofId": proofID.String()})
	resp := httptest.NewRecorder()
	Verify(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			Invoice struct {
				Status string `json:"status"`
			} `json:"invoice"`
			Receipt *struct {
				Number string `json:"number"`
			} `json:"receipt"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Invoice.Status != string(enums.InvoiceStatusPaid) || envelope.Data.Receipt == nil || envelope.Data.Receipt.Number != "REC-1" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestInvoiceDetailOwnership(t *testing.T) {
	owner := uuid.New()
	invoice := &models.Invoice{ID: uuid.New(), CustomerID: owner, Status: enums.InvoiceStatusUnpaid}
	invoices := stubInvoices{invoice.ID: invoice}
	svc := &stubService{listProofsFn: func(context.Context, uuid.UUID) ([]models.PaymentProof, error) {
		return []models.PaymentProof{{ID: uuid.New()}}, nil
	}}

	req := request(http.MethodGet, "", uuid.New(), map[string]string{"invoiceId": invoice.ID.String()})
	resp := httptest.NewRecorder()
	InvoiceDetail(invoices, svc, testLogger())(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger got %d", resp.Code)
	}

	req = request(http.MethodGet, "", owner, map[string]string{"invoiceId": invoice.ID.String()})
	resp = httptest.NewRecorder()
	InvoiceDetail(invoices, svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Proofs  []map[string]any `json:"proofs"`
			Receipt map[string]any   `json:"receipt"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Proofs) != 1 || envelope.Data.Receipt != nil {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestInvoiceDetailIncludesReceiptWhenPaid(t *testing.T) {
	owner := uuid.New()
	paidAt := time.Now()
	invoice := &models.Invoice{ID: uuid.New(), CustomerID: owner, Status: enums.InvoiceStatusPaid, PaidAt: &paidAt}
	svc := &stubService{
		listProofsFn: func(context.Context, uuid.UUID) ([]models.PaymentProof, error) { return nil, nil },
		receiptFn: func(_ context.Context, id uuid.UUID) (*models.PaymentReceipt, error) {
			return &models.PaymentReceipt{ID: uuid.New(), InvoiceID: id, Number: "REC-9"}, nil
		},
	}
	req := request(http.MethodGet, "", owner, map[string]string{"invoiceId": invoice.ID.String()})
	resp := httptest.NewRecorder()
	InvoiceDetail(stubInvoices{invoice.ID: invoice}, svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"REC-9"`) {
		t.Fatalf("expected receipt in body: %s", resp.Body.String())
	}
}
