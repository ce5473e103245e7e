package http

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"

	"github.com/samirrijal/skywatch/internal/core/domain"
)

// APIKeyHeader carries the client credential.
const APIKeyHeader = "x-api-key"

// APIKeyQuery is the query parameter accepted when the header is absent.
const APIKeyQuery = "api_key"

var errWrongAPIKey = errors.New("invalid API key")

type apiKeyCtxKey struct{}

// presentedKey returns the credential from the header, else from the
// api_key query parameter.
func presentedKey(c *fiber.Ctx) string {
	if k := c.Get(APIKeyHeader); k != "" {
		return k
	}
	return c.Query(APIKeyQuery)
}

// checkAPIKey compares got against want. An empty want disables the check.
func checkAPIKey(want, got string) error {
	switch {
	case want == "":
		return nil
	case got == "":
		return domain.Unauthorized("missing API key")
	case subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1:
		return domain.Forbidden("invalid API key")
	}
	return nil
}

// withAPIKey carries the presented credential to resolvers that check it
// per field.
func withAPIKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, apiKeyCtxKey{}, key)
}

func apiKeyFrom(ctx context.Context) string {
	k, _ := ctx.Value(apiKeyCtxKey{}).(string)
	return k
}

// APIKeyMiddleware requires the configured key in the x-api-key header or
// the api_key query parameter. An empty key disables the check. A missing
// key is 401, a wrong one 403.
func APIKeyMiddleware(key string) fiber.Handler {
	if key == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	check := keyauth.New(keyauth.Config{
		KeyLookup: "header:" + APIKeyHeader,
		Validator: func(_ *fiber.Ctx, got string) (bool, error) {
			if checkAPIKey(key, got) == nil {
				return true, nil
			}
			return false, errWrongAPIKey
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, errWrongAPIKey) {
				return errForbidden(c, "invalid API key")
			}
			return errUnauthorized(c, "missing API key")
		},
	})
	return func(c *fiber.Ctx) error {
		if c.Get(APIKeyHeader) == "" {
			if q := c.Query(APIKeyQuery); q != "" {
				c.Request().Header.Set(APIKeyHeader, q)
			}
		}
		return check(c)
	}
}
