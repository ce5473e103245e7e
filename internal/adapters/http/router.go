package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/skywatch/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(etag.New(etag.Config{Weak: true}))
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, no rate limit)
	app.Get("/health", HealthHandler(deps))
	app.Get("/ready", ReadyHandler(deps))

	registerAPI(app, deps)
	registerAPI(app.Group(LegacyPrefix, DeprecationMiddleware(LegacyPrefix, LegacySunset)), deps)

	// charged per top-level field inside the handler
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), deps.timeout()))

	SetupDocs(app)

	// each subscribe is charged again inside the handler
	app.Use("/ws", RateLimitMiddleware(deps.Limiter, "celestial"), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals(wsClientIPKey, c.IP())
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}

// registerAPI mounts the data routes on r. Canonical and legacy paths share
// rate-limit groups, so an alias does not double a client's quota.
func registerAPI(r fiber.Router, deps *Dependencies) {
	t := deps.timeout()
	auth := APIKeyMiddleware(deps.APIKey)

	r.Get("/celestial",
		RateLimitMiddleware(deps.Limiter, "celestial"),
		timeout.NewWithContext(CelestialHandler(deps), t))
	r.Get("/weather",
		RateLimitMiddleware(deps.Limiter, "weather"), auth,
		timeout.NewWithContext(WeatherHandler(deps), t))
	r.Get("/locations/search",
		RateLimitMiddleware(deps.Limiter, "locations"),
		timeout.NewWithContext(SearchLocationsHandler(deps), t))
	r.Get("/locations/reverse",
		RateLimitMiddleware(deps.Limiter, "locations"),
		timeout.NewWithContext(ReverseLocationHandler(deps), t))
	r.Get("/dashboard",
		RateLimitMiddleware(deps.Limiter, "dashboard"), auth,
		timeout.NewWithContext(DashboardHandler(deps), t))
}
