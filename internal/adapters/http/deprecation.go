package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LegacyPrefix is the path prefix of the pre-release routes.
const LegacyPrefix = "/api"

// LegacySunset is when the /api aliases stop being served.
var LegacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// DeprecationMiddleware marks legacy aliases with RFC 8594 Deprecation and
// Sunset headers and links the canonical route.
func DeprecationMiddleware(prefix string, sunset time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Deprecation", "true")
		c.Set("Sunset", sunset.UTC().Format(time.RFC1123))

		successor := strings.TrimPrefix(c.Path(), prefix)
		if successor == "" {
			successor = "/"
		}
		c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, successor))

		days := time.Until(sunset).Hours() / 24
		c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))

		return c.Next()
	}
}
