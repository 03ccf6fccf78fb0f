package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rahulmenon/bazario-backend/api/controllers"
	"github.com/rahulmenon/bazario-backend/api/middleware"
	"github.com/rahulmenon/bazario-backend/internal/auth"
	"github.com/rahulmenon/bazario-backend/internal/orders"
	"github.com/rahulmenon/bazario-backend/internal/products"
	"github.com/rahulmenon/bazario-backend/internal/vendors"
	"github.com/rahulmenon/bazario-backend/pkg/config"
	"github.com/rahulmenon/bazario-backend/pkg/enums"
	"github.com/rahulmenon/bazario-backend/pkg/logger"
	"github.com/rahulmenon/bazario-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DBPinger       controllers.Pinger
	RedisClient    *redis.Client
	AuthService    auth.Service
	VendorService  vendors.Service
	ProductService products.Service
	OrderService   orders.Service
	Registry       *prometheus.Registry
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

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": deps.DBPinger,
			"redis":    pingerOrNil(deps.RedisClient),
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.RedisClient, logg)).
			Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.RedisClient, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
	})

	// Public catalog surface.
	r.Get("/api/v1/vendors", controllers.VendorList(deps.VendorService, logg))
	r.Get("/api/v1/vendors/{slug}", controllers.VendorBySlug(deps.VendorService, logg))
	r.Get("/api/v1/products", controllers.ProductList(deps.ProductService, logg))
	r.Get("/api/v1/products/{productId}", controllers.ProductGet(deps.ProductService, logg))

	// Gateway callback authenticates with its HMAC signature, not a JWT.
	r.Post("/api/v1/payments/callback", controllers.PaymentCallback(deps.OrderService, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.RedisClient, logg))

		r.Get("/api/v1/auth/me", controllers.AuthMe(deps.AuthService, logg))

		r.Post("/api/v1/vendors", controllers.VendorCreate(deps.VendorService, logg))

		r.Route("/api/v1/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleVendor), logg))
			r.Get("/me", controllers.VendorMe(deps.VendorService, logg))
			r.Post("/products", controllers.ProductCreate(deps.ProductService, logg))
			r.Patch("/products/{productId}", controllers.ProductUpdate(deps.ProductService, logg))
			r.Delete("/products/{productId}", controllers.ProductDelete(deps.ProductService, logg))
			r.Get("/orders", controllers.OrdersForVendor(deps.OrderService, logg))
		})

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(deps.OrderService, logg))
			r.Get("/me", controllers.OrdersForCustomer(deps.OrderService, logg))
			r.Get("/{orderId}", controllers.OrderGet(deps.OrderService, logg))
			r.Post("/{orderId}/retry-gateway", controllers.OrderRetryGateway(deps.OrderService, logg))
		})
	})

	return r
}

func pingerOrNil(client *redis.Client) controllers.Pinger {
	if client == nil {
		return nil
	}
	return client
}
