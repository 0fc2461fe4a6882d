package billing

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmarquezluna/stockroom-backend/api/responses"
	"github.com/dmarquezluna/stockroom-backend/api/validators"
	billingsvc "github.com/dmarquezluna/stockroom-backend/internal/billing"
	"github.com/dmarquezluna/stockroom-backend/pkg/db/models"
	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
	pkgerrors "github.com/dmarquezluna/stockroom-backend/pkg/errors"
	"github.com/dmarquezluna/stockroom-backend/pkg/logger"
	"github.com/dmarquezluna/stockroom-backend/pkg/types"
)

type lineItemRequest struct {
	ItemID    string `json:"item_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	UnitPrice string `json:"unit_price" validate:"required"`
}

type billCreateRequest struct {
	BillNumber string            `json:"bill_number" validate:"required"`
	CreatedBy  string            `json:"created_by" validate:"required,uuid"`
	LineItems  []lineItemRequest `json:"line_items" validate:"required,min=1,dive"`
}

type billUpdateRequest struct {
	LineItems []lineItemRequest `json:"line_items" validate:"required,min=1,dive"`
}

type paymentRequest struct {
	Amount      string     `json:"amount" validate:"required"`
	PaymentDate *time.Time `json:"payment_date,omitempty"`
	Reference   *string    `json:"reference,omitempty"`
}

type statusOverrideRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=pending partial paid"`
}

type lineItemResponse struct {
	ID        string `json:"id"`
	ItemID    string `json:"item_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type billResponse struct {
	ID            string             `json:"id"`
	BillNumber    string             `json:"bill_number"`
	TotalAmount   string             `json:"total_amount"`
	PaymentStatus string             `json:"payment_status"`
	CreatedBy     string             `json:"created_by"`
	LineItems     []lineItemResponse `json:"line_items,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

func toBillResponse(bill *models.Bill) billResponse {
	resp := billResponse{
		ID:            bill.ID.String(),
		BillNumber:    bill.BillNumber,
		TotalAmount:   bill.TotalAmount.StringFixed(2),
		PaymentStatus: bill.PaymentStatus.String(),
		CreatedBy:     bill.CreatedBy.String(),
		CreatedAt:     bill.CreatedAt.UTC(),
	}
	for _, line := range bill.LineItems {
		resp.LineItems = append(resp.LineItems, lineItemResponse{
			ID:        line.ID.String(),
			ItemID:    line.ItemID.String(),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.StringFixed(2),
			LineTotal: line.LineTotal.StringFixed(2),
		})
	}
	return resp
}

func parseLineItems(lines []lineItemRequest) ([]billingsvc.LineItemInput, error) {
	out := make([]billingsvc.LineItemInput, 0, len(lines))
	for _, line := range lines {
		price, err := decimal.NewFromString(line.UnitPrice)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price").
				WithDetails(map[string]any{"unit_price": line.UnitPrice})
		}
		out = append(out, billingsvc.LineItemInput{
			ItemID:    uuid.MustParse(line.ItemID),
			Quantity:  line.Quantity,
			UnitPrice: price,
		})
	}
	return out, nil
}

// BillCreate opens a bill and reserves the billed stock.
func BillCreate(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload billCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := parseLineItems(payload.LineItems)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bill, err := svc.CreateBill(r.Context(), billingsvc.CreateBillInput{
			BillNumber: payload.BillNumber,
			CreatedBy:  uuid.MustParse(payload.CreatedBy),
			LineItems:  lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toBillResponse(bill))
	}
}

// BillUpdate replaces the bill's line items.
func BillUpdate(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "billId"), "billId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload billUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := parseLineItems(payload.LineItems)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bill, err := svc.UpdateBill(r.Context(), id, billingsvc.UpdateBillInput{LineItems: lines})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBillResponse(bill))
	}
}

// BillDelete removes a bill and restores its stock.
func BillDelete(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "billId"), "billId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteBill(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// BillGet returns one bill with its line items and payments.
func BillGet(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "billId"), "billId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bill, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBillResponse(bill))
	}
}

// BillList returns bills newest first.
func BillList(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bills, next, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]billResponse, 0, len(bills))
		for i := range bills {
			out = append(out, toBillResponse(&bills[i]))
		}
		responses.WriteSuccess(w, types.Page{Items: out, NextCursor: next})
	}
}

// PaymentCreate records a payment and re-derives the bill's payment status.
func PaymentCreate(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "billId"), "billId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := decimal.NewFromString(payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment amount"))
			return
		}

		input := billingsvc.PaymentInput{
			BillID:    id,
			Amount:    amount,
			Reference: payload.Reference,
		}
		if payload.PaymentDate != nil {
			input.PaymentDate = *payload.PaymentDate
		}

		bill, err := svc.RecordPayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toBillResponse(bill))
	}
}

// StatusOverride sets the payment status directly.
func StatusOverride(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "billId"), "billId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload statusOverrideRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bill, err := svc.OverrideStatus(r.Context(), id, enums.BillPaymentStatus(payload.PaymentStatus))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBillResponse(bill))
	}
}
