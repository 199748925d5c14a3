// Package api provides the HTTP API for SafeRoute.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/api/handler"
	"github.com/saferoute/saferoute/internal/api/middleware"
	"github.com/saferoute/saferoute/internal/auth"
	"github.com/saferoute/saferoute/internal/geocoding"
	"github.com/saferoute/saferoute/internal/provider/resilience"
	"github.com/saferoute/saferoute/internal/routes"
	"github.com/saferoute/saferoute/internal/routing"
	"github.com/saferoute/saferoute/internal/zones"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	BuildTime      string
	Logger         zerolog.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *middleware.Metrics
	DB             *pgxpool.Pool
	Registry       *resilience.Registry
	Engine         *routing.Engine
	GeocodeService *geocoding.Service
	RouteService   *routes.Service
	ZoneService    *zones.Service
	JWTService     *auth.JWTService
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "saferoute-api"
	}
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.SecurityHeaders) // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)      // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON) // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB, cfg.Registry)
	authHandler := handler.NewAuthHandler(cfg.JWTService)
	routeHandler := handler.NewRouteHandler(cfg.Engine, cfg.GeocodeService, cfg.ZoneService, cfg.RouteService, cfg.Logger)
	zoneHandler := handler.NewZoneHandler(cfg.ZoneService, cfg.Logger)
	geocodeHandler := handler.NewGeocodeHandler(cfg.GeocodeService, cfg.Logger)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.JWTService)

	// Create rate limit middleware for different endpoint categories
	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)           // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min
	roleRateLimit := middleware.RateLimitByRole(middleware.StandardRateLimit)     // 100 req/min per role

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit) // 10 requests per minute per IP
			r.Post("/token", authHandler.ExchangeToken)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware, roleRateLimit).Get("/status", opsHandler.SystemStatus)
		})

		// Geocoding endpoint (public) - standard rate limiting
		r.With(standardRateLimit).Get("/geocode", geocodeHandler.Geocode)

		// Route planning - expensive compute, strict rate limiting
		r.With(expensiveRateLimit).Post("/routes:plan", routeHandler.PlanRoute)

		// Saved routes - standard rate limiting
		r.Route("/routes", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", routeHandler.ListRoutes)
			r.Route("/{routeId}", func(r chi.Router) {
				r.Get("/", routeHandler.GetRoute)
				r.Delete("/", routeHandler.DeleteRoute)
				r.Get("/export.kml", routeHandler.ExportKML)
			})
		})

		// Disaster zone catalogue - reads public, mutations require a JWT
		r.Route("/zones", func(r chi.Router) {
			r.With(standardRateLimit).Get("/", zoneHandler.ListZones)

			// Mutations: authenticated, rate limited per role
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware)
				r.Use(roleRateLimit) // 100 req/min per role
				r.Post("/", zoneHandler.CreateZone)
				r.Delete("/{zoneId}", zoneHandler.DeleteZone)
			})
		})
	})

	return r
}
