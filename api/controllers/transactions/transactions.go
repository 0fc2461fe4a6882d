package transactions

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmarquezluna/stockroom-backend/api/responses"
	"github.com/dmarquezluna/stockroom-backend/api/validators"
	txsvc "github.com/dmarquezluna/stockroom-backend/internal/transactions"
	"github.com/dmarquezluna/stockroom-backend/pkg/db/models"
	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
	pkgerrors "github.com/dmarquezluna/stockroom-backend/pkg/errors"
	"github.com/dmarquezluna/stockroom-backend/pkg/logger"
	"github.com/dmarquezluna/stockroom-backend/pkg/types"
)

type checkoutRequest struct {
	ItemID   string     `json:"item_id" validate:"required,uuid"`
	UserID   string     `json:"user_id" validate:"required,uuid"`
	Quantity int        `json:"quantity" validate:"required,gt=0"`
	DueDate  *time.Time `json:"due_date,omitempty"`
	Notes    *string    `json:"notes,omitempty"`
}

type checkinRequest struct {
	ItemID   string  `json:"item_id" validate:"required,uuid"`
	UserID   string  `json:"user_id" validate:"required,uuid"`
	Quantity int     `json:"quantity" validate:"required,gt=0"`
	Notes    *string `json:"notes,omitempty"`
}

type approveRequest struct {
	ApprovedBy string `json:"approved_by" validate:"required,uuid"`
}

type transactionResponse struct {
	ID              string     `json:"id"`
	ItemID          string     `json:"item_id"`
	UserID          string     `json:"user_id"`
	TransactionType string     `json:"transaction_type"`
	Quantity        int        `json:"quantity"`
	Status          string     `json:"status"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	ReturnedDate    *time.Time `json:"returned_date,omitempty"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toTransactionResponse(txn *models.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:              txn.ID.String(),
		ItemID:          txn.ItemID.String(),
		UserID:          txn.UserID.String(),
		TransactionType: txn.TransactionType.String(),
		Quantity:        txn.Quantity,
		Status:          txn.Status.String(),
		DueDate:         txn.DueDate,
		ReturnedDate:    txn.ReturnedDate,
		ApprovedAt:      txn.ApprovedAt,
		Notes:           txn.Notes,
		CreatedAt:       txn.CreatedAt.UTC(),
	}
	if txn.ApprovedBy != nil {
		approver := txn.ApprovedBy.String()
		resp.ApprovedBy = &approver
	}
	return resp
}

// CheckoutCreate lends stock to a user.
func CheckoutCreate(svc txsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.CreateCheckout(r.Context(), txsvc.CheckoutInput{
			ItemID:   uuid.MustParse(payload.ItemID),
			UserID:   uuid.MustParse(payload.UserID),
			Quantity: payload.Quantity,
			DueDate:  payload.DueDate,
			Notes:    payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toTransactionResponse(txn))
	}
}

// CheckinCreate records returned stock that has no originating checkout.
func CheckinCreate(svc txsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkinRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.CreateCheckin(r.Context(), txsvc.CheckinInput{
			ItemID:   uuid.MustParse(payload.ItemID),
			UserID:   uuid.MustParse(payload.UserID),
			Quantity: payload.Quantity,
			Notes:    payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toTransactionResponse(txn))
	}
}

// Return completes an outstanding checkout.
func Return(svc txsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "transactionId"), "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.CompleteReturn(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toTransactionResponse(txn))
	}
}

// Approve stamps an approval on a transaction.
func Approve(svc txsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "transactionId"), "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload approveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Approve(r.Context(), id, uuid.MustParse(payload.ApprovedBy))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toTransactionResponse(txn))
	}
}

// Get returns one transaction by id.
func Get(svc txsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "transactionId"), "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toTransactionResponse(txn))
	}
}

// List returns transactions filtered by item, user and status, newest first.
func List(svc txsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := txsvc.ListFilter{}
		if filter.ItemID, err = validators.ParseQueryUUID(r, "item_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.UserID, err = validators.ParseQueryUUID(r, "user_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, parseErr := enums.ParseTransactionStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			filter.Status = &status
		}

		txns, next, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]transactionResponse, 0, len(txns))
		for i := range txns {
			out = append(out, toTransactionResponse(&txns[i]))
		}
		responses.WriteSuccess(w, types.Page{Items: out, NextCursor: next})
	}
}
