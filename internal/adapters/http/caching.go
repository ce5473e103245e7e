package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on successful GET responses that did
// not set their own. Lifetimes follow the server-side cache TTLs.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet || c.Response().StatusCode() != fiber.StatusOK {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := strings.TrimPrefix(c.Path(), "/api")
		var ttl string
		switch {
		case path == "/health" || path == "/ready" || c.Path() == "/metrics":
			ttl = "no-cache"
		case path == "/celestial":
			ttl = "public, max-age=60"
		case path == "/weather", path == "/dashboard":
			ttl = "private, max-age=300"
		case strings.HasPrefix(path, "/locations/"):
			ttl = "public, max-age=3600"
		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=3600"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}
		return err
	}
}
