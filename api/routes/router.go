package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/perfuman/storefront-backend/api/controllers"
	webhookcontrollers "github.com/perfuman/storefront-backend/api/controllers/webhooks"
	"github.com/perfuman/storefront-backend/api/middleware"
	checkoutsvc "github.com/perfuman/storefront-backend/internal/checkout"
	"github.com/perfuman/storefront-backend/internal/orders"
	"github.com/perfuman/storefront-backend/internal/products"
	"github.com/perfuman/storefront-backend/pkg/config"
	"github.com/perfuman/storefront-backend/pkg/logger"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              controllers.Pinger
	Redis           controllers.Pinger
	ProductsRepo    products.Repository
	OrdersRepo      orders.Repository
	CheckoutService checkoutsvc.Service
	PaymentsService webhookcontrollers.PaymentNotificationService
	Expirer         controllers.StaleOrderExpirer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Checkout.BaseURL),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, params.DB, params.Redis))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(params.ProductsRepo, logg))
			r.Get("/{id}", controllers.GetProduct(params.ProductsRepo, logg))
		})

		r.Post("/checkout", controllers.Checkout(params.CheckoutService, logg))
		r.Get("/orders/{id}", controllers.GetOrder(params.OrdersRepo, logg))

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/mercadopago", webhookcontrollers.MercadoPago(params.PaymentsService, logg))
			r.Get("/mercadopago", webhookcontrollers.MercadoPagoVerify())
		})

		r.Get("/cron/cleanup-orders", controllers.TriggerOrderExpiration(params.Expirer, cfg.Cron.Secret, logg))
	})

	return r
}
