package alerts

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmarquezluna/stockroom-backend/api/responses"
	"github.com/dmarquezluna/stockroom-backend/api/validators"
	alertsvc "github.com/dmarquezluna/stockroom-backend/internal/alerts"
	"github.com/dmarquezluna/stockroom-backend/pkg/db/models"
	"github.com/dmarquezluna/stockroom-backend/pkg/logger"
)

type alertResponse struct {
	ID              string     `json:"id"`
	ItemID          string     `json:"item_id"`
	CurrentQuantity int        `json:"current_quantity"`
	MinQuantity     int        `json:"min_quantity"`
	AlertLevel      string     `json:"alert_level"`
	Status          string     `json:"status"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toAlertResponse(alert *models.LowStockAlert) alertResponse {
	return alertResponse{
		ID:              alert.ID.String(),
		ItemID:          alert.ItemID.String(),
		CurrentQuantity: alert.CurrentQuantity,
		MinQuantity:     alert.MinQuantity,
		AlertLevel:      alert.AlertLevel.String(),
		Status:          alert.Status.String(),
		ResolvedAt:      alert.ResolvedAt,
		CreatedAt:       alert.CreatedAt.UTC(),
	}
}

// ListActive returns every alert currently in the active state.
func ListActive(svc alertsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alerts, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]alertResponse, 0, len(alerts))
		for i := range alerts {
			out = append(out, toAlertResponse(&alerts[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// GetByItem returns the alert row for one item, active or resolved.
func GetByItem(svc alertsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "itemId"), "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		alert, err := svc.GetByItemID(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAlertResponse(alert))
	}
}
