package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmarquezluna/stockroom-backend/api/controllers"
	alertcontrollers "github.com/dmarquezluna/stockroom-backend/api/controllers/alerts"
	billingcontrollers "github.com/dmarquezluna/stockroom-backend/api/controllers/billing"
	inventorycontrollers "github.com/dmarquezluna/stockroom-backend/api/controllers/inventory"
	txcontrollers "github.com/dmarquezluna/stockroom-backend/api/controllers/transactions"
	"github.com/dmarquezluna/stockroom-backend/api/middleware"
	"github.com/dmarquezluna/stockroom-backend/internal/alerts"
	"github.com/dmarquezluna/stockroom-backend/internal/billing"
	"github.com/dmarquezluna/stockroom-backend/internal/hub"
	"github.com/dmarquezluna/stockroom-backend/internal/inventory"
	"github.com/dmarquezluna/stockroom-backend/internal/transactions"
	"github.com/dmarquezluna/stockroom-backend/pkg/config"
	"github.com/dmarquezluna/stockroom-backend/pkg/db"
	"github.com/dmarquezluna/stockroom-backend/pkg/logger"
	"github.com/dmarquezluna/stockroom-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	promRegistry *prometheus.Registry,
	wsHub *hub.Hub,
	inventoryService inventory.Service,
	alertService alerts.Service,
	transactionService transactions.Service,
	billingService billing.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Post("/", inventorycontrollers.ItemCreate(inventoryService, logg))
			r.Get("/", inventorycontrollers.ItemList(inventoryService, logg))
			r.Get("/{itemId}", inventorycontrollers.ItemGet(inventoryService, logg))
			r.Get("/{itemId}/alert", alertcontrollers.GetByItem(alertService, logg))
		})

		r.Get("/alerts", alertcontrollers.ListActive(alertService, logg))

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/checkout", txcontrollers.CheckoutCreate(transactionService, logg))
			r.Post("/checkin", txcontrollers.CheckinCreate(transactionService, logg))
			r.Get("/", txcontrollers.List(transactionService, logg))
			r.Get("/{transactionId}", txcontrollers.Get(transactionService, logg))
			r.Put("/{transactionId}/return", txcontrollers.Return(transactionService, logg))
			r.Put("/{transactionId}/approve", txcontrollers.Approve(transactionService, logg))
		})

		r.Route("/bills", func(r chi.Router) {
			r.Post("/", billingcontrollers.BillCreate(billingService, logg))
			r.Get("/", billingcontrollers.BillList(billingService, logg))
			r.Get("/{billId}", billingcontrollers.BillGet(billingService, logg))
			r.Put("/{billId}", billingcontrollers.BillUpdate(billingService, logg))
			r.Delete("/{billId}", billingcontrollers.BillDelete(billingService, logg))
			r.Post("/{billId}/payments", billingcontrollers.PaymentCreate(billingService, logg))
			r.Put("/{billId}/status", billingcontrollers.StatusOverride(billingService, logg))
		})

		r.Get("/ws", wsHub.ServeWS)
	})

	return r
}
