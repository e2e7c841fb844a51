package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/averroes-labs/storefront-gateway/api/controllers"
	authcontrollers "github.com/averroes-labs/storefront-gateway/api/controllers/auth"
	cartcontrollers "github.com/averroes-labs/storefront-gateway/api/controllers/cart"
	catalogcontrollers "github.com/averroes-labs/storefront-gateway/api/controllers/catalog"
	contentcontrollers "github.com/averroes-labs/storefront-gateway/api/controllers/content"
	ordercontrollers "github.com/averroes-labs/storefront-gateway/api/controllers/orders"
	"github.com/averroes-labs/storefront-gateway/api/middleware"
	"github.com/averroes-labs/storefront-gateway/pkg/config"
	"github.com/averroes-labs/storefront-gateway/pkg/logger"
	redispkg "github.com/averroes-labs/storefront-gateway/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	cache *redispkg.Client,
	cartEngine cartcontrollers.Engine,
	catalogService catalogcontrollers.Service,
	ordersService ordercontrollers.Service,
	authService authcontrollers.Service,
	contentService contentcontrollers.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	var cachePinger redispkg.Pinger
	if cache != nil {
		cachePinger = cache
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, cachePinger))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(cartEngine, logg))
			r.Post("/", cartcontrollers.CartCreate(cartEngine, logg))
			r.Put("/", cartcontrollers.CartUpdate(cartEngine, logg))
			r.Post("/items", cartcontrollers.CartAddItem(cartEngine, logg))
			r.Post("/items/remove", cartcontrollers.CartRemoveItem(cartEngine, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalogcontrollers.ProductList(catalogService, logg))
			r.Get("/{productId}", catalogcontrollers.ProductDetail(catalogService, logg))
		})
		r.Get("/filters", catalogcontrollers.Filters(catalogService, logg))
		r.Get("/navbar", catalogcontrollers.Navbar(catalogService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.OrderCreate(ordersService, logg))
			r.Get("/track", ordercontrollers.OrderTrack(ordersService, logg))
			r.Get("/{orderId}", ordercontrollers.OrderDetail(ordersService, logg))
		})
		r.Get("/checkout-details", ordercontrollers.CheckoutDetails(ordersService, logg))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/csrf", authcontrollers.CSRFBootstrap(authService, logg))
			r.Post("/register", authcontrollers.Register(authService, logg))
			r.Post("/verify-email", authcontrollers.VerifyEmail(authService, logg))
			r.Post("/login", authcontrollers.Login(authService, logg))
			r.Post("/logout", authcontrollers.Logout(authService, logg))
			r.Get("/me", authcontrollers.Me(authService, logg))
		})

		r.Route("/content", func(r chi.Router) {
			r.Get("/banners", contentcontrollers.Banners(contentService, logg))
			r.Get("/overviews", contentcontrollers.Overviews(contentService, logg))
			r.Get("/about", contentcontrollers.About(contentService, logg))
			r.Get("/contacts", contentcontrollers.Contacts(contentService, logg))
			r.Post("/contact-submissions", contentcontrollers.ContactSubmit(contentService, logg))
		})
	})

	return r
}
