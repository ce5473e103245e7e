package ports

import (
	"context"
	"time"

	"github.com/samirrijal/skywatch/internal/core/domain"
)

// Ephemeris computes positions, rise/set events and the lunar phase.
type Ephemeris interface {
	Position(ctx context.Context, body domain.Body, at time.Time, obs domain.GeoPoint) (domain.HorizontalPosition, error)
	RiseSet(ctx context.Context, body domain.Body, at time.Time, obs domain.GeoPoint) (domain.RiseSet, error)
	Phase(ctx context.Context, at time.Time) (float64, error)
}

// SearchQuery is one attempt in a forward search plan.
type SearchQuery struct {
	Text        string
	PostalCode  string
	FeatureType string
	Countries   []string
	Limit       int
}

// Structured reports whether the query targets a postal code.
func (q SearchQuery) Structured() bool { return q.PostalCode != "" }

// Geocoder resolves free text to places and coordinates to a place.
type Geocoder interface {
	Search(ctx context.Context, q SearchQuery) ([]domain.Place, error)
	Reverse(ctx context.Context, p domain.GeoPoint) (domain.Place, error)
}

// WeatherQuery selects the forecast blocks to fetch.
type WeatherQuery struct {
	Point domain.GeoPoint
	Days  int
}

// WeatherProvider fetches and normalizes a forecast.
type WeatherProvider interface {
	Forecast(ctx context.Context, q WeatherQuery) (*domain.Weather, error)
}

// DataSource bundles the three external capabilities. Live and fixture
// implementations are chosen once at startup.
type DataSource interface {
	Name() string
	Ephemeris() Ephemeris
	Geocoder() Geocoder
	Weather() WeatherProvider
}
