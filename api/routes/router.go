package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maplecart/maplecart-backend/api/controllers"
	"github.com/maplecart/maplecart-backend/api/middleware"
	"github.com/maplecart/maplecart-backend/internal/cart"
	"github.com/maplecart/maplecart-backend/internal/finance"
	"github.com/maplecart/maplecart-backend/internal/orders"
	"github.com/maplecart/maplecart-backend/internal/refunds"
	"github.com/maplecart/maplecart-backend/pkg/logger"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Logger   *logger.Logger
	Database controllers.Pinger
	Cache    controllers.Pinger

	Cart    cart.Service
	Orders  orders.Service
	Refunds refunds.Service
	Finance finance.Service
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.UserContext(deps.Logger),
	)

	r.Get("/health/live", controllers.HealthLive())
	r.Get("/health/ready", controllers.HealthReady(deps.Database, deps.Cache, deps.Logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartList(deps.Cart, deps.Logger))
			r.Post("/items", controllers.CartAdd(deps.Cart, deps.Logger))
			r.Put("/items/{productID}", controllers.CartUpdateQuantity(deps.Cart, deps.Logger))
			r.Post("/select", controllers.CartSelect(deps.Cart, deps.Logger))
			r.Delete("/items/{productID}", controllers.CartRemove(deps.Cart, deps.Logger))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(deps.Orders, deps.Logger))
			r.Get("/", controllers.OrderList(deps.Orders, deps.Logger))
			r.Get("/{orderNumber}", controllers.OrderDetail(deps.Orders, deps.Logger))
			r.Put("/{orderNumber}/status", controllers.OrderUpdateStatus(deps.Orders, deps.Logger))

			r.Post("/{orderNumber}/refund", controllers.RefundApply(deps.Refunds, deps.Logger))
			r.Post("/{orderNumber}/refund/seller-accept", controllers.RefundSellerAccept(deps.Refunds, deps.Logger))
			r.Post("/{orderNumber}/refund/audit", controllers.RefundAudit(deps.Refunds, deps.Logger))
			r.Get("/{orderNumber}/refund", controllers.RefundProgress(deps.Refunds, deps.Logger))

			r.Get("/{orderNumber}/splits", controllers.FinanceOrderSplits(deps.Finance, deps.Logger))
		})

		r.Post("/payments/notify", controllers.PaymentNotify(deps.Orders, deps.Logger))

		r.Get("/finance/accounts/{accountType}", controllers.FinanceAccount(deps.Finance, deps.Logger))
	})

	return r
}
