package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jkimathi/sokoflow-backend/api/controllers"
	"github.com/jkimathi/sokoflow-backend/api/middleware"
	"github.com/jkimathi/sokoflow-backend/internal/cart"
	"github.com/jkimathi/sokoflow-backend/internal/catalog"
	checkoutsvc "github.com/jkimathi/sokoflow-backend/internal/checkout"
	"github.com/jkimathi/sokoflow-backend/internal/inventory"
	"github.com/jkimathi/sokoflow-backend/internal/notifications"
	"github.com/jkimathi/sokoflow-backend/internal/orders"
	"github.com/jkimathi/sokoflow-backend/internal/reorder"
	"github.com/jkimathi/sokoflow-backend/pkg/config"
	"github.com/jkimathi/sokoflow-backend/pkg/enums"
	"github.com/jkimathi/sokoflow-backend/pkg/logger"
)

// Services carries the wired domain services the router exposes.
type Services struct {
	Catalog       catalog.Service
	Cart          cart.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Inventory     inventory.Service
	Notifications notifications.Service
	ReorderAlerts reorder.Service
}

// Dependencies are the infrastructure handles the readiness probe checks.
type Dependencies struct {
	DB    controllers.Pinger
	Redis controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies, svcs Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/", controllers.CatalogList(svcs.Catalog, logg))
		r.Get("/{productID}", controllers.CatalogDetail(svcs.Catalog, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleBuyer))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartView(svcs.Cart, logg))
				r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
				r.Patch("/items/{productID}", controllers.CartUpdateItem(svcs.Cart, logg))
				r.Delete("/items/{productID}", controllers.CartRemoveItem(svcs.Cart, logg))
				r.Delete("/", controllers.CartClear(svcs.Cart, logg))
			})

			r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))
		})

		// Order reads and transitions are shared; the service authorizes per
		// actor (buyers cancel and amend delivery, suppliers run fulfilment).
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderID}", controllers.OrderGet(svcs.Orders, logg))
			r.Patch("/{orderID}/status", controllers.OrderSetStatus(svcs.Orders, logg))
			r.Patch("/{orderID}/delivery", controllers.OrderUpdateDelivery(svcs.Orders, logg))
		})

		r.Route("/supplier", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleSupplier, enums.ActorRoleAdmin))

			r.Get("/orders", controllers.OrderList(svcs.Orders, logg))
			r.Post("/orders/{orderID}/status", controllers.OrderSetStatus(svcs.Orders, logg))
			r.Post("/orders/{orderID}/payment-status", controllers.OrderSetPaymentStatus(svcs.Orders, logg))

			r.Get("/reorder-alerts", controllers.ReorderAlertList(svcs.ReorderAlerts, logg))
			r.Post("/reorder-alerts/{alertID}/resolve", controllers.ReorderAlertResolve(svcs.ReorderAlerts, logg))

			r.Route("/inventory", func(r chi.Router) {
				r.Get("/low-stock", controllers.InventoryLowStock(svcs.Inventory, logg))
				r.Get("/{productID}", controllers.InventoryGet(svcs.Inventory, logg))
				r.Post("/{productID}/adjust", controllers.InventoryAdjust(svcs.Inventory, logg))
				r.Post("/{productID}/restock", controllers.InventoryRestock(svcs.Inventory, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationList(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.NotificationUnreadCount(svcs.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.NotificationMarkRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.NotificationMarkAllRead(svcs.Notifications, logg))
		})
	})

	return r
}
