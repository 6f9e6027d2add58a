package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/live-tracking/internal/api/handler"
	"github.com/99minutos/live-tracking/internal/api/middleware"
	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/ports"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	AuthService     ports.AuthService
	OrderService    ports.OrderService
	LocationService ports.LocationService
	Hub             handler.PeerServer
	Checks          map[string]handler.DependencyCheck
	JWTSecret       string
	Logger          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// HTTP metrics live in their own registry so that several routers can
	// coexist in one process; /metrics gathers both.
	httpRegistry := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "tracking",
		Subsystem:  "http",
		Registerer: httpRegistry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/ws"
		},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	orderHandler := handler.NewOrderHandler(deps.OrderService)
	locationHandler := handler.NewLocationHandler(deps.LocationService)
	realtimeHandler := handler.NewRealtimeHandler(deps.Hub, deps.Logger)
	auth := middleware.Auth(deps.JWTSecret)

	vendor := domain.RoleVendor
	delivery := domain.RoleDelivery

	// --- Auth routes ---
	api := e.Group("/api")
	api.POST("/auth/signup", authHandler.Signup)
	api.POST("/auth/login", authHandler.Login)

	// --- Order routes ---
	orders := api.Group("/orders", auth)
	orders.POST("", orderHandler.Create, middleware.RBAC(vendor))
	orders.GET("/:id", orderHandler.Get)
	orders.GET("/vendor/:vendor_id", orderHandler.ByVendor, middleware.RBAC(vendor))
	orders.GET("/delivery/:partner_id", orderHandler.ByPartner, middleware.RBAC(delivery))
	orders.POST("/:id/assign", orderHandler.Assign, middleware.RBAC(vendor))
	orders.PUT("/:id/status", orderHandler.UpdateStatus, middleware.RBAC(vendor, delivery))

	api.GET("/delivery-partners/available", orderHandler.AvailablePartners, auth, middleware.RBAC(vendor))
	api.GET("/deliveries/:id/location", locationHandler.Last, auth)

	// --- Realtime ---
	e.GET("/ws", realtimeHandler.Connect, auth)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, httpRegistry},
	}))

	return e
}

// requestLogger logs one line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
