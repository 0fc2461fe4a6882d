package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	billingsvc "github.com/dmarquezluna/stockroom-backend/internal/billing"
	"github.com/dmarquezluna/stockroom-backend/pkg/db/models"
	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
	pkgerrors "github.com/dmarquezluna/stockroom-backend/pkg/errors"
	"github.com/dmarquezluna/stockroom-backend/pkg/pagination"
)

type stubBillingService struct {
	create   func(ctx context.Context, input billingsvc.CreateBillInput) (*models.Bill, error)
	payment  func(ctx context.Context, input billingsvc.PaymentInput) (*models.Bill, error)
	override func(ctx context.Context, billID uuid.UUID, status enums.BillPaymentStatus) (*models.Bill, error)
	update   func(ctx context.Context, billID uuid.UUID, input billingsvc.UpdateBillInput) (*models.Bill, error)
	get      func(ctx context.Context, billID uuid.UUID) (*models.Bill, error)
}

func (s *stubBillingService) CreateBill(ctx context.Context, input billingsvc.CreateBillInput) (*models.Bill, error) {
	if s.create != nil {
		return s.create(ctx, input)
	}
	return nil, nil
}

func (s *stubBillingService) RecordPayment(ctx context.Context, input billingsvc.PaymentInput) (*models.Bill, error) {
	if s.payment != nil {
		return s.payment(ctx, input)
	}
	return nil, nil
}

func (s *stubBillingService) OverrideStatus(ctx context.Context, billID uuid.UUID, status enums.BillPaymentStatus) (*models.Bill, error) {
	if s.override != nil {
		return s.override(ctx, billID, status)
	}
	return nil, nil
}

func (s *stubBillingService) UpdateBill(ctx context.Context, billID uuid.UUID, input billingsvc.UpdateBillInput) (*models.Bill, error) {
	if s.update != nil {
		return s.update(ctx, billID, input)
	}
	return nil, nil
}

func (s *stubBillingService) DeleteBill(ctx context.Context, billID uuid.UUID) error {
	return nil
}

func (s *stubBillingService) Get(ctx context.Context, billID uuid.UUID) (*models.Bill, error) {
	if s.get != nil {
		return s.get(ctx, billID)
	}
	return nil, nil
}

func (s *stubBillingService) List(ctx context.Context, params pagination.Params) ([]models.Bill, string, error) {
	return nil, "", nil
}

func withBillID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("billId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestBillCreatePassesParsedLineItems(t *testing.T) {
	createdBy := uuid.New()
	itemID := uuid.New()
	svc := &stubBillingService{
		create: func(ctx context.Context, input billingsvc.CreateBillInput) (*models.Bill, error) {
			if input.BillNumber != "INV-2026-014" {
				t.Fatalf("unexpected bill number %q", input.BillNumber)
			}
			if input.CreatedBy != createdBy {
				t.Fatalf("unexpected created_by %s", input.CreatedBy)
			}
			if len(input.LineItems) != 1 {
				t.Fatalf("expected 1 line item, got %d", len(input.LineItems))
			}
			line := input.LineItems[0]
			if line.ItemID != itemID || line.Quantity != 3 {
				t.Fatalf("line item not parsed: %+v", line)
			}
			if !line.UnitPrice.Equal(decimal.RequireFromString("12.50")) {
				t.Fatalf("unexpected unit price %s", line.UnitPrice)
			}
			return &models.Bill{
				ID:            uuid.New(),
				BillNumber:    input.BillNumber,
				TotalAmount:   decimal.RequireFromString("37.50"),
				PaymentStatus: enums.BillPaymentStatusPending,
				CreatedBy:     createdBy,
			}, nil
		},
	}

	body := `{"bill_number":"INV-2026-014","created_by":"` + createdBy.String() + `",` +
		`"line_items":[{"item_id":"` + itemID.String() + `","quantity":3,"unit_price":"12.50"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	BillCreate(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data billResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.TotalAmount != "37.50" {
		t.Fatalf("unexpected total %q", envelope.Data.TotalAmount)
	}
	if envelope.Data.PaymentStatus != "pending" {
		t.Fatalf("unexpected status %q", envelope.Data.PaymentStatus)
	}
}

func TestBillCreateRejectsMalformedPrice(t *testing.T) {
	svc := &stubBillingService{
		create: func(ctx context.Context, input billingsvc.CreateBillInput) (*models.Bill, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	body := `{"bill_number":"INV-1","created_by":"` + uuid.NewString() + `",` +
		`"line_items":[{"item_id":"` + uuid.NewString() + `","quantity":1,"unit_price":"twelve"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	BillCreate(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
}

func TestPaymentCreateRecordsPartialPayment(t *testing.T) {
	billID := uuid.New()
	svc := &stubBillingService{
		payment: func(ctx context.Context, input billingsvc.PaymentInput) (*models.Bill, error) {
			if input.BillID != billID {
				t.Fatalf("unexpected bill id %s", input.BillID)
			}
			if !input.Amount.Equal(decimal.RequireFromString("30.00")) {
				t.Fatalf("unexpected amount %s", input.Amount)
			}
			return &models.Bill{
				ID:            billID,
				BillNumber:    "INV-1",
				TotalAmount:   decimal.RequireFromString("60.00"),
				PaymentStatus: enums.BillPaymentStatusPartial,
				CreatedBy:     uuid.New(),
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills/"+billID.String()+"/payments",
		strings.NewReader(`{"amount":"30.00"}`))
	req.Header.Set("Content-Type", "application/json")
	req = withBillID(req, billID.String())

	resp := httptest.NewRecorder()
	PaymentCreate(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data billResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.PaymentStatus != "partial" {
		t.Fatalf("unexpected status %q", envelope.Data.PaymentStatus)
	}
}

func TestBillGetNotFound(t *testing.T) {
	billID := uuid.New()
	svc := &stubBillingService{
		get: func(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills/"+billID.String(), nil)
	req = withBillID(req, billID.String())

	resp := httptest.NewRecorder()
	BillGet(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestStatusOverrideRejectsUnknownStatus(t *testing.T) {
	billID := uuid.New()
	svc := &stubBillingService{
		override: func(ctx context.Context, id uuid.UUID, status enums.BillPaymentStatus) (*models.Bill, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/bills/"+billID.String()+"/status",
		strings.NewReader(`{"payment_status":"void"}`))
	req.Header.Set("Content-Type", "application/json")
	req = withBillID(req, billID.String())

	resp := httptest.NewRecorder()
	StatusOverride(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
