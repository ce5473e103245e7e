package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/usecases"
)

// queryInt parses an optional integer parameter strictly.
func queryInt(c *fiber.Ctx, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(name + " must be an integer")
	}
	return v, nil
}

// queryBool accepts true/false/1/0; anything else is false.
func queryBool(c *fiber.Ctx, name string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(c.Query(name)))
	return err == nil && v
}

func setCacheHeader(c *fiber.Ctx, hit bool) {
	if hit {
		c.Set("X-Cache", "HIT")
	} else {
		c.Set("X-Cache", "MISS")
	}
}

// CelestialHandler returns the sky snapshot for lat, lon and optional iso,
// tz and hours.
func CelestialHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := domain.ParseObservation(c.Query("lat"), c.Query("lon"), c.Query("iso"), c.Query("tz"), deps.clock().Now())
		if err != nil {
			return writeError(c, err)
		}
		hours, err := queryInt(c, "hours", 0)
		if err != nil {
			return writeError(c, err)
		}

		snap, hit, err := deps.Sky.Snapshot(c.UserContext(), req, usecases.SnapshotOptions{Hours: hours})
		if err != nil {
			return writeError(c, err)
		}
		setCacheHeader(c, hit)
		return c.JSON(snap)
	}
}

// WeatherHandler returns current and hourly conditions, plus a daily block
// when days is given.
func WeatherHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		point, err := domain.ParseGeoPoint(c.Query("lat"), c.Query("lon"))
		if err != nil {
			return writeError(c, err)
		}
		days, err := queryInt(c, "days", 0)
		if err != nil {
			return writeError(c, err)
		}

		wx, hit, err := deps.Weather.Forecast(c.UserContext(), point, days)
		if err != nil {
			return writeError(c, err)
		}
		setCacheHeader(c, hit)
		return c.JSON(wx)
	}
}

// SearchLocationsHandler runs a forward search. No match is an empty list,
// not an error.
func SearchLocationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(q) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		limit, err := queryInt(c, "limit", usecases.DefaultSearchLimit)
		if err != nil {
			return writeError(c, err)
		}

		res, err := deps.Places.Search(c.UserContext(), q, usecases.SearchOptions{
			Limit:      limit,
			CitiesOnly: queryBool(c, "citiesOnly"),
		})
		c.Set("X-Search-Mode", string(res.Plan.Mode))
		c.Set("X-Suggest-Debounce", strconv.FormatInt(res.Plan.Debounce.Milliseconds(), 10))
		if err != nil && !domain.IsKind(err, domain.KindNotFound) {
			return writeError(c, err)
		}
		setCacheHeader(c, res.Cached)

		if queryBool(c, "minimal") {
			out := make([]domain.MinimalPlace, 0, len(res.Places))
			for _, p := range res.Places {
				out = append(out, p.Minimal())
			}
			return c.JSON(out)
		}
		if res.Places == nil {
			res.Places = []domain.Place{}
		}
		return c.JSON(res.Places)
	}
}

// ReverseLocationHandler resolves lat/lon to a single place.
func ReverseLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		point, err := domain.ParseGeoPoint(c.Query("lat"), c.Query("lon"))
		if err != nil {
			return writeError(c, err)
		}

		place, err := deps.Places.Reverse(c.UserContext(), point)
		if err != nil {
			return writeError(c, err)
		}
		if queryBool(c, "minimal") {
			return c.JSON(place.Minimal())
		}
		return c.JSON(place)
	}
}

// DashboardHandler returns the composed snapshot, weather and place payload.
func DashboardHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := domain.ParseObservation(c.Query("lat"), c.Query("lon"), c.Query("iso"), c.Query("tz"), deps.clock().Now())
		if err != nil {
			return writeError(c, err)
		}

		d, err := deps.Dashboard.Compose(c.UserContext(), req)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(d)
	}
}
