package inventory

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmarquezluna/stockroom-backend/api/responses"
	"github.com/dmarquezluna/stockroom-backend/api/validators"
	inventorysvc "github.com/dmarquezluna/stockroom-backend/internal/inventory"
	"github.com/dmarquezluna/stockroom-backend/pkg/db/models"
	"github.com/dmarquezluna/stockroom-backend/pkg/enums"
	"github.com/dmarquezluna/stockroom-backend/pkg/logger"
)

type itemCreateRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
	Quantity    int     `json:"quantity" validate:"min=0"`
	MinQuantity int     `json:"min_quantity" validate:"min=0"`
	Status      string  `json:"status,omitempty" validate:"omitempty,oneof=available checked_out maintenance retired"`
}

type itemResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Quantity    int       `json:"quantity"`
	MinQuantity int       `json:"min_quantity"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toItemResponse(item *models.InventoryItem) itemResponse {
	return itemResponse{
		ID:          item.ID.String(),
		Name:        item.Name,
		Description: item.Description,
		Quantity:    item.Quantity,
		MinQuantity: item.MinQuantity,
		Status:      item.Status.String(),
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}
}

// ItemCreate registers a new inventory item.
func ItemCreate(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload itemCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), inventorysvc.CreateItemInput{
			Name:        payload.Name,
			Description: payload.Description,
			Quantity:    payload.Quantity,
			MinQuantity: payload.MinQuantity,
			Status:      enums.ItemStatus(payload.Status),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toItemResponse(item))
	}
}

// ItemGet returns one item by id.
func ItemGet(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toItemResponse(item))
	}
}

// ItemList returns all items.
func ItemList(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListItems(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]itemResponse, 0, len(items))
		for i := range items {
			out = append(out, toItemResponse(&items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
