// Package main provides the entrypoint for the SafeRoute API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/api"
	"github.com/saferoute/saferoute/internal/api/middleware"
	"github.com/saferoute/saferoute/internal/auth"
	"github.com/saferoute/saferoute/internal/avoidance"
	"github.com/saferoute/saferoute/internal/database"
	"github.com/saferoute/saferoute/internal/geocoding"
	"github.com/saferoute/saferoute/internal/geocoding/nominatim"
	"github.com/saferoute/saferoute/internal/provider/resilience"
	"github.com/saferoute/saferoute/internal/risk"
	"github.com/saferoute/saferoute/internal/routes"
	"github.com/saferoute/saferoute/internal/routing"
	"github.com/saferoute/saferoute/internal/routing/graphhopper"
	"github.com/saferoute/saferoute/internal/telemetry"
	"github.com/saferoute/saferoute/internal/zones"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "saferoute-api"

	// Load .env if present; environment variables win.
	_ = godotenv.Load()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting SafeRoute API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Provider registry tracks circuit breaker health for ops status
	registry := resilience.NewRegistry()

	// Initialize routing provider with a caching layer in front
	ghClient := graphhopper.NewClient(graphhopper.ClientConfig{
		APIKey:   os.Getenv("GRAPHHOPPER_API_KEY"),
		BaseURL:  os.Getenv("GRAPHHOPPER_BASE_URL"),
		Registry: registry,
		Logger:   log,
	})
	routingService := routing.NewService(routing.ServiceConfig{
		Provider: ghClient,
		Logger:   log,
	})
	log.Info().Str("provider", ghClient.Name()).Msg("routing provider initialized")

	// Initialize the route planning engine
	engine := routing.NewEngine(routing.EngineConfig{
		Provider:    routingService,
		ZoneBuilder: avoidance.NewBuilder(avoidance.Config{}, log),
		Risk:        risk.NewCalculator(risk.Config{}),
		Logger:      log,
	})

	// Initialize geocoding
	geocodeService := geocoding.NewService(geocoding.ServiceConfig{
		Geocoder: nominatim.NewClient(nominatim.ClientConfig{
			BaseURL:  os.Getenv("NOMINATIM_BASE_URL"),
			Registry: registry,
			Logger:   log,
		}),
		Logger: log,
	})
	log.Info().Msg("geocoding service initialized")

	// Initialize route persistence
	routeService := routes.NewService(routes.NewPostgresRepository(pool), log)
	log.Info().Msg("routes service initialized")

	// Initialize the disaster zone catalogue
	zoneService := zones.NewService(zones.ServiceConfig{
		Repository: zones.NewPostgresRepository(pool),
		Logger:     log,
	})
	log.Info().Msg("zones service initialized")

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	adminKey := os.Getenv("ADMIN_API_KEY")
	if adminKey == "" {
		log.Warn().Msg("ADMIN_API_KEY not set - zone management endpoints are disabled")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
		AdminKey:   adminKey,
		Issuer:     "https://api.saferoute.dev",
		Audience:   serviceName,
	})

	var allowedOrigins []string
	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		allowedOrigins = strings.Split(raw, ",")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		AllowedOrigins: allowedOrigins,
		Metrics:        metrics,
		DB:             pool,
		Registry:       registry,
		Engine:         engine,
		GeocodeService: geocodeService,
		RouteService:   routeService,
		ZoneService:    zoneService,
		JWTService:     jwtService,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
