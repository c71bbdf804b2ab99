package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/velora-dev/storefront-backend/api/controllers"
	"github.com/velora-dev/storefront-backend/api/middleware"
	cartsvc "github.com/velora-dev/storefront-backend/internal/cart"
	catalogsvc "github.com/velora-dev/storefront-backend/internal/catalog"
	notifsvc "github.com/velora-dev/storefront-backend/internal/notifications"
	ordersvc "github.com/velora-dev/storefront-backend/internal/orders"
	promosvc "github.com/velora-dev/storefront-backend/internal/promotions"
	usersvc "github.com/velora-dev/storefront-backend/internal/users"
	"github.com/velora-dev/storefront-backend/pkg/config"
	"github.com/velora-dev/storefront-backend/pkg/db"
	"github.com/velora-dev/storefront-backend/pkg/logger"
	pkgredis "github.com/velora-dev/storefront-backend/pkg/redis"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *pkgredis.Client
	Users         usersvc.Service
	Catalog       catalogsvc.Service
	Cart          cartsvc.Service
	Orders        ordersvc.Service
	Promotions    promosvc.Service
	Notifications notifsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var idempotencyStore middleware.IdempotencyStore
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.Idempotency(idempotencyStore, logg)).
			Post("/register", controllers.AuthRegister(deps.Users, logg))
		r.Post("/login", controllers.AuthLogin(deps.Users, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).
			Get("/me", controllers.AuthProfile(deps.Users, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(deps.Catalog, logg))
		r.Get("/{productRef}", controllers.ProductDetail(deps.Catalog, logg))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Get("/", controllers.CartView(deps.Cart, logg))
		r.Delete("/", controllers.CartClear(deps.Cart, logg))
		r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
		r.Patch("/items/{variantId}", controllers.CartUpdateItem(deps.Cart, logg))
		r.Delete("/items/{variantId}", controllers.CartRemoveItem(deps.Cart, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))
		r.Post("/", controllers.OrderCreate(deps.Orders, logg))
		r.Get("/", controllers.OrderList(deps.Orders, logg))
		r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
		r.Put("/{orderId}/cancel", controllers.OrderCancel(deps.Orders, logg))
	})

	r.Route("/api/v1/promotions", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Post("/validate", controllers.PromotionValidate(deps.Promotions, logg))
	})

	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Get("/", controllers.NotificationList(deps.Notifications, logg))
		r.Post("/{notificationId}/read", controllers.NotificationMarkRead(deps.Notifications, logg))
		r.Post("/read-all", controllers.NotificationMarkAllRead(deps.Notifications, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireStaff(logg))
			r.Use(middleware.Idempotency(idempotencyStore, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(deps.Orders, logg))
			r.Put("/{orderId}/status", controllers.AdminOrderStatus(deps.Orders, logg))
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))
			r.Get("/", controllers.PromotionList(deps.Promotions, logg))
			r.Post("/", controllers.PromotionCreate(deps.Promotions, logg))
			r.Get("/{promotionId}", controllers.PromotionDetail(deps.Promotions, logg))
			r.Patch("/{promotionId}", controllers.PromotionUpdate(deps.Promotions, logg))
			r.Delete("/{promotionId}", controllers.PromotionDelete(deps.Promotions, logg))
		})
	})

	return r
}
