package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/afyalink/health-registry/docs"
	"github.com/afyalink/health-registry/internal/api/handler"
	"github.com/afyalink/health-registry/internal/api/middleware"
	"github.com/afyalink/health-registry/internal/core/ports"
	"github.com/afyalink/health-registry/internal/core/service"
	"github.com/afyalink/health-registry/internal/metrics"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Auth     ports.AuthService
	Registry ports.RegistryService
	Tables   handler.TableLister
	Pingers  map[string]handler.Pinger
	Log      zerolog.Logger
	// Metrics defaults to the global Prometheus registry when nil. A custom
	// registry also receives the domain counters from internal/metrics.
	Metrics  *prometheus.Registry

	// AuthRateLimit is requests per second per client IP on /auth.
	AuthRateLimit float64
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Metrics != nil {
		registerer, gatherer = deps.Metrics, deps.Metrics
		deps.Metrics.MustRegister(metrics.Collectors()...)
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "registry",
		Registerer: registerer,
	}))

	authHandler := handler.NewAuthHandler(deps.Auth)
	adminHandler := handler.NewAdminHandler(deps.Auth)
	registryHandler := handler.NewRegistryHandler(deps.Registry)
	healthHandler := handler.NewHealthHandler(deps.Tables, deps.Pingers)
	requireAuth := middleware.Auth(deps.Auth)

	// --- Status and tooling (no auth required) ---
	e.GET("/", healthHandler.Root)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/db-status", healthHandler.DBStatus)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	auth := e.Group("/auth")
	if deps.AuthRateLimit > 0 {
		auth.Use(middleware.RateLimit(deps.AuthRateLimit))
	}
	auth.POST("/register", authHandler.Register)
	auth.POST("/jwt/login", authHandler.Login)

	// --- Registry API ---
	registry := e.Group("/api")
	registry.POST("/init-admin", adminHandler.InitAdmin)

	guarded := registry.Group("", requireAuth)
	guarded.POST("/set-role", adminHandler.SetRole, middleware.RequireOperation(service.OpSetRole))
	guarded.POST("/programs", registryHandler.CreateProgram, middleware.RequireOperation(service.OpCreateProgram))
	guarded.POST("/clients", registryHandler.CreateClient, middleware.RequireOperation(service.OpCreateClient))
	guarded.POST("/clients/search", registryHandler.SearchClients, middleware.RequireOperation(service.OpSearchClients))
	guarded.GET("/clients/:client_id", registryHandler.GetClient, middleware.RequireOperation(service.OpGetClientProfile))
	guarded.POST("/enrollments", registryHandler.CreateEnrollment, middleware.RequireOperation(service.OpCreateEnrollment))

	return e
}
