package http

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/skywatch/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Error:     message,
		Code:      code,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, domain.KindInvalidArgument.String(), msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnauthorized, "unauthorized", msg)
}

// errForbidden returns a 403 error.
func errForbidden(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusForbidden, "forbidden", msg)
}

// errRateLimited returns a 429 error.
func errRateLimited(c *fiber.Ctx) error {
	return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
}

// statusFor maps an error kind to its HTTP status. Upstream failures keep
// the collaborator's status when it is an error status.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidArgument:
		return fiber.StatusBadRequest
	case domain.KindUnauthorized:
		return fiber.StatusUnauthorized
	case domain.KindForbidden:
		return fiber.StatusForbidden
	case domain.KindRateLimited:
		return fiber.StatusTooManyRequests
	case domain.KindNotFound, domain.KindUpstreamNotFound:
		return fiber.StatusNotFound
	case domain.KindUpstreamFailure:
		if s := domain.StatusOf(err); s >= 400 && s <= 599 {
			return s
		}
		return fiber.StatusBadGateway
	case domain.KindUpstreamTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders any core error. Internal failures are logged and their
// details withheld from the client.
func writeError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	kind := domain.KindOf(err)
	msg := err.Error()
	if status >= 500 {
		LoggerFromCtx(c.UserContext()).Error("request failed",
			"path", c.Path(), "kind", kind.String(), "status", status, "error", err)
		if kind == domain.KindComputation {
			msg = http.StatusText(status)
		}
	}
	return newError(c, status, kind.String(), msg)
}

// ErrorHandler is the fiber-level fallback for errors returned by handlers
// and middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		code := "http_error"
		switch fe.Code {
		case fiber.StatusRequestTimeout:
			return newError(c, fiber.StatusGatewayTimeout, domain.KindUpstreamTimeout.String(), "request timed out")
		case fiber.StatusNotFound:
			code = "not_found"
		case fiber.StatusUpgradeRequired:
			code = "upgrade_required"
		}
		return newError(c, fe.Code, code, fe.Message)
	}
	slog.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
	return writeError(c, err)
}
