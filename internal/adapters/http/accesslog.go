package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// levelFor grades a finished request: server errors and handler errors are
// errors, client errors warnings.
func levelFor(status int, err error) slog.Level {
	switch {
	case err != nil, status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// AccessLogMiddleware writes one structured line per request through the
// request-scoped logger, so every line carries the request ID.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		attrs := make([]slog.Attr, 0, 9)
		attrs = append(attrs,
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("route", c.Route().Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
			slog.String("ip", c.IP()),
		)
		if v := c.GetRespHeader("X-Cache"); v != "" {
			attrs = append(attrs, slog.String("cache", v))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		ctx := c.UserContext()
		LoggerFromCtx(ctx).LogAttrs(ctx, levelFor(status, err), "request", attrs...)
		return err
	}
}
