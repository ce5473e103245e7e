package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/samirrijal/skywatch/internal/adapters/datasource"
	"github.com/samirrijal/skywatch/internal/adapters/ephemeris"
	"github.com/samirrijal/skywatch/internal/adapters/geocoding"
	"github.com/samirrijal/skywatch/internal/adapters/http"
	"github.com/samirrijal/skywatch/internal/adapters/memory"
	natsadapter "github.com/samirrijal/skywatch/internal/adapters/nats"
	"github.com/samirrijal/skywatch/internal/adapters/openmeteo"
	"github.com/samirrijal/skywatch/internal/adapters/valkey"
	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/core/usecases"
	"github.com/samirrijal/skywatch/internal/pkg/config"
	"github.com/samirrijal/skywatch/internal/pkg/logging"
	"github.com/samirrijal/skywatch/internal/pkg/ratelimit"
	"github.com/samirrijal/skywatch/internal/pkg/telemetry"
	"github.com/samirrijal/skywatch/internal/pkg/upstream"
)

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	cfg, err := config.Load("skywatch-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Cache and rate limiter: Valkey when configured, in-process otherwise.
	window := time.Duration(cfg.RateLimit.Window) * time.Second
	var (
		store   ports.CacheStore
		limiter ports.RateLimiter
	)
	if cfg.Cache.URL != "" {
		client, err := valkey.NewClient(cfg.Cache.URL)
		if err != nil {
			log.Fatalf("cache: %v", err)
		}
		defer client.Close()
		store = valkey.NewWithClient(client)
		limiter = valkey.NewLimiter(client, cfg.RateLimit.Limit, window)
		slog.Info("using valkey cache", "url", cfg.Cache.URL)
	} else {
		mem := memory.New(cfg.Cache.MaxEntries)
		defer mem.Close()
		store = mem
		limiter = ratelimit.NewFixedWindow(cfg.RateLimit.Limit, window)
		slog.Info("using in-process cache", "max_entries", cfg.Cache.MaxEntries)
	}
	cache := usecases.NewCacheManager(store)

	source := buildDataSource(cfg)
	slog.Info("data source selected", "source", source.Name())

	// NATS (optional)
	var (
		events ports.EventPublisher
		broker http.Broker
	)
	if cfg.NATS.URL != "" {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			events, broker = pub, pub
		}
	}

	// Use cases
	skySvc := usecases.NewSkyService(source.Ephemeris(), cache, events, source.Name())
	placeSvc := usecases.NewPlaceService(source.Geocoder(), cache, cfg.Geocoder.CountryCodes)
	weatherSvc := usecases.NewWeatherService(source.Weather(), cache)
	dashboardSvc := usecases.NewDashboardService(skySvc, weatherSvc, placeSvc, cfg.Dashboard.LightPollution)

	deps := &http.Dependencies{
		Sky:            skySvc,
		Places:         placeSvc,
		Weather:        weatherSvc,
		Dashboard:      dashboardSvc,
		Cache:          cache,
		Limiter:        limiter,
		Broker:         broker,
		Source:         source.Name(),
		APIKey:         cfg.Auth.APIKey,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "SkyWatch API",
		ProxyHeader:  cfg.Server.ProxyHeader,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, x-api-key",
		ExposeHeaders:    "X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After, X-Search-Mode, X-Suggest-Debounce, X-Cache",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "source", source.Name())
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// buildDataSource picks fixtures in mock mode and wires the live providers
// otherwise.
func buildDataSource(cfg *config.Config) ports.DataSource {
	if cfg.Mock.Enabled {
		return datasource.NewFixture()
	}

	ua := upstream.WithUserAgent(cfg.Geocoder.UserAgent)

	var geo ports.Geocoder
	geoClient := upstream.New("geocoder", ua, upstream.WithRate(cfg.Geocoder.RPS, 1))
	switch cfg.Geocoder.Provider {
	case "mapbox":
		geo = geocoding.NewMapbox(geoClient, cfg.Geocoder.BaseURL, cfg.Geocoder.MapboxToken)
	default:
		geo = geocoding.NewNominatim(geoClient, cfg.Geocoder.BaseURL, geocoding.ShapeJSONv2)
	}

	wx := openmeteo.New(upstream.New("open-meteo", ua), cfg.Weather.BaseURL)

	var eph ports.Ephemeris = ephemeris.NewLocal()
	if cfg.Compute.BaseURL != "" {
		eph = ephemeris.NewRemote(upstream.New("compute", ua), cfg.Compute.BaseURL, eph)
	}

	return datasource.NewLive(eph, geo, wx)
}
