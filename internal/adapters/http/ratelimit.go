package http

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/pkg/metrics"
)

// RateLimitMiddleware admits requests per client IP within one route
// group. Limiter errors fail open.
func RateLimitMiddleware(limiter ports.RateLimiter, group string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, err := admit(c, limiter, group, 1)
		if !ok {
			return err
		}
		return c.Next()
	}
}

// admit charges cost units of the client's quota in group and sets the
// X-RateLimit headers. Over quota it writes the 429 response and reports
// false; the returned error is the write error.
func admit(c *fiber.Ctx, limiter ports.RateLimiter, group string, cost int) (bool, error) {
	if limiter == nil {
		return true, nil
	}
	if cost < 1 {
		cost = 1
	}

	key := group + ":" + c.IP()
	var d ports.Decision
	for i := 0; i < cost; i++ {
		var err error
		d, err = limiter.Allow(c.UserContext(), key)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Warn("rate limiter unavailable, admitting request",
				"group", group, "error", err)
			return true, nil
		}
		if !d.Allowed {
			break
		}
	}

	c.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

	if !d.Allowed {
		metrics.RateLimitRejections.WithLabelValues(group).Inc()
		wait := math.Ceil(time.Until(d.ResetAt).Seconds())
		if wait < 1 {
			wait = 1
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(wait)))
		return false, errRateLimited(c)
	}
	return true, nil
}
