// Package ephemeris adapts astronomical computation backends to
// ports.Ephemeris.
package ephemeris

import (
	"context"
	"fmt"
	"time"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/pkg/astro"
)

// SearchWindow bounds the rise/set search after the request instant.
const SearchWindow = 24 * time.Hour

// Local computes everything in-process.
type Local struct{}

// NewLocal returns the in-process ephemeris.
func NewLocal() *Local { return &Local{} }

var _ ports.Ephemeris = (*Local)(nil)

func toAstro(b domain.Body) (astro.Body, error) {
	ab, ok := astro.ParseBody(string(b))
	if !ok {
		return 0, domain.Invalid(fmt.Sprintf("unknown body %q", b))
	}
	return ab, nil
}

// Position returns the apparent altitude and azimuth of body.
func (l *Local) Position(ctx context.Context, body domain.Body, at time.Time, obs domain.GeoPoint) (domain.HorizontalPosition, error) {
	if err := ctx.Err(); err != nil {
		return domain.HorizontalPosition{}, err
	}
	ab, err := toAstro(body)
	if err != nil {
		return domain.HorizontalPosition{}, err
	}
	hz := astro.Position(ab, at, astro.Observer{Lat: obs.Lat, Lon: obs.Lon})
	return domain.HorizontalPosition{Altitude: hz.Altitude, Azimuth: hz.Azimuth}, nil
}

// RiseSet returns the next rise and set within SearchWindow of at.
func (l *Local) RiseSet(ctx context.Context, body domain.Body, at time.Time, obs domain.GeoPoint) (domain.RiseSet, error) {
	if err := ctx.Err(); err != nil {
		return domain.RiseSet{}, err
	}
	ab, err := toAstro(body)
	if err != nil {
		return domain.RiseSet{}, err
	}
	ev := astro.RiseSet(ab, at, SearchWindow, astro.Observer{Lat: obs.Lat, Lon: obs.Lon})
	return domain.RiseSet{Rise: ev.Rise, Set: ev.Set}, nil
}

// Phase returns the lunar phase angle in [0,360).
func (l *Local) Phase(ctx context.Context, at time.Time) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return astro.MoonPhase(at), nil
}
