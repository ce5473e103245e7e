package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Version is reported by /health; set at build time with -ldflags.
var Version = "dev"

// HealthHandler reports liveness. It never touches dependencies.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"source":  deps.Source,
			"version": Version,
		})
	}
}

// readiness is one named dependency check. Optional checks are reported
// but never fail readiness.
type readiness struct {
	name     string
	optional bool
	check    func(context.Context) string
}

func (d *Dependencies) readinessChecks() []readiness {
	return []readiness{
		{name: "cache", check: func(ctx context.Context) string {
			if d.Cache == nil {
				return "not configured"
			}
			if err := d.Cache.Ping(ctx); err != nil {
				return "error: " + err.Error()
			}
			return "ok"
		}},
		{name: "services", check: func(context.Context) string {
			if d.Sky == nil || d.Places == nil || d.Weather == nil || d.Dashboard == nil {
				return "not wired"
			}
			return "ok"
		}},
		{name: "nats", optional: true, check: func(context.Context) string {
			switch {
			case d.Broker == nil:
				return "not configured"
			case d.Broker.Connected():
				return "ok"
			default:
				return "disconnected"
			}
		}},
	}
}

// ReadyHandler runs every readiness check and answers 503 when a required
// one reports a failure.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		ready := true
		for _, r := range deps.readinessChecks() {
			res := r.check(ctx)
			checks[r.name] = res
			if !r.optional && res != "ok" && res != "not configured" {
				ready = false
			}
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready", "source": deps.Source, "checks": checks,
			})
		}
		return c.JSON(fiber.Map{"status": "ready", "source": deps.Source, "checks": checks})
	}
}
