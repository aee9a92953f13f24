package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/workoutbrothers/storefront-backend/api/controllers"
	webhookcontrollers "github.com/workoutbrothers/storefront-backend/api/controllers/webhooks"
	"github.com/workoutbrothers/storefront-backend/api/middleware"
	"github.com/workoutbrothers/storefront-backend/internal/admin"
	"github.com/workoutbrothers/storefront-backend/internal/auth"
	"github.com/workoutbrothers/storefront-backend/internal/cart"
	"github.com/workoutbrothers/storefront-backend/internal/orders"
	"github.com/workoutbrothers/storefront-backend/internal/payments"
	product "github.com/workoutbrothers/storefront-backend/internal/products"
	"github.com/workoutbrothers/storefront-backend/pkg/config"
	"github.com/workoutbrothers/storefront-backend/pkg/db"
	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	"github.com/workoutbrothers/storefront-backend/pkg/logger"
	"github.com/workoutbrothers/storefront-backend/pkg/redis"
)

// Services groups the domain services mounted by the router.
type Services struct {
	Auth     auth.Service
	Products product.Service
	Cart     cart.Service
	Orders   orders.Service
	Payments payments.Service
	Webhooks webhookcontrollers.StripeWebhookService
	Admin    admin.Service
}

type rateLimitStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	// A typed nil client must not reach the interface params below.
	var (
		limiter    rateLimitStore
		idemStore  redis.IdempotencyStore
		redisCheck redis.Pinger
	)
	if redisClient != nil {
		limiter = redisClient
		idemStore = redisClient
		redisCheck = redisClient
	}

	apiPolicy := middleware.NewRateLimitPolicy("api", cfg.RateLimit.APIWindow, cfg.RateLimit.APILimit, middleware.ByClientIP)
	authPolicy := middleware.NewRateLimitPolicy("auth", cfg.RateLimit.AuthWindow, cfg.RateLimit.AuthLimit, middleware.ByClientIPAndEmail)
	adminPolicy := middleware.NewRateLimitPolicy("admin", cfg.RateLimit.AdminWindow, cfg.RateLimit.AdminLimit, middleware.ByUser)

	r.Route("/api", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/", controllers.HealthLive(cfg))
			r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisCheck))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(authPolicy, limiter, logg))
			r.Post("/register", controllers.AuthRegister(svcs.Auth, logg))
			r.Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		})

		// Stripe authenticates the webhook through its signature header.
		r.Post("/payments/webhook", webhookcontrollers.StripeWebhook(svcs.Webhooks, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(apiPolicy, limiter, logg))
			r.Get("/products", controllers.ProductList(svcs.Products, logg))
			r.Get("/products/{productId}", controllers.ProductDetail(svcs.Products, logg))
			r.Get("/categories", controllers.CategoryList(svcs.Products, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RateLimit(apiPolicy, limiter, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(svcs.Cart, logg))
				r.Delete("/", controllers.CartClear(svcs.Cart, logg))
				r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
				r.Put("/items/{itemId}", controllers.CartUpdateItem(svcs.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(svcs.Cart, logg))
			})

			r.With(middleware.Idempotency(idemStore, middleware.CriticalIdempotencyTTL, logg)).
				Post("/orders", controllers.OrderCheckout(svcs.Orders, logg))
			r.Get("/orders", controllers.OrderList(svcs.Orders, logg))
			r.Get("/orders/{orderId}", controllers.OrderDetail(svcs.Orders, logg))

			r.With(middleware.Idempotency(idemStore, middleware.DefaultIdempotencyTTL, logg)).
				Post("/payments/create-intent", controllers.PaymentCreateIntent(svcs.Payments, logg))
			r.Post("/payments/confirm", controllers.PaymentConfirm(svcs.Payments, logg))

			r.Post("/products/{productId}/reviews", controllers.ProductReview(svcs.Products, logg))
			r.Post("/agent/query", controllers.AgentQuery(logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Use(middleware.RateLimit(adminPolicy, limiter, logg))

			r.Post("/products", controllers.ProductCreate(svcs.Products, logg))
			r.Put("/products/{productId}", controllers.ProductUpdate(svcs.Products, logg))
			r.Delete("/products/{productId}", controllers.ProductDelete(svcs.Products, logg))
			r.Put("/orders/{orderId}/status", controllers.OrderUpdateStatus(svcs.Orders, logg))

			r.Route("/admin", func(r chi.Router) {
				r.Get("/stats", controllers.AdminStats(svcs.Admin, logg))
				r.Post("/trigger-stock-check", controllers.AdminTriggerStockCheck(svcs.Admin, logg))
				r.Post("/trigger-report", controllers.AdminTriggerReport(svcs.Admin, logg))
				r.Post("/agent/pricing", controllers.AdminPricing(logg))
			})
		})
	})

	return r
}
