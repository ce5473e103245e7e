package datasource

import (
	"context"
	"strings"
	"time"

	"github.com/samirrijal/skywatch/internal/adapters/ephemeris"
	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/pkg/geospatial"
)

// fixturePlaces is the offline gazetteer.
var fixturePlaces = []domain.Place{
	{
		DisplayName: "1600 Amphitheatre Parkway, Mountain View, CA 94043, United States",
		Point:       domain.GeoPoint{Lat: 37.422, Lon: -122.084},
		FeatureType: domain.FeatureAddress,
		City:        "Mountain View", State: "California", Country: "United States",
		CountryCode: "us", Postcode: "94043",
	},
	{
		DisplayName: "Mountain View, Santa Clara County, California, United States",
		Point:       domain.GeoPoint{Lat: 37.3894, Lon: -122.0819},
		FeatureType: domain.FeatureCity,
		City:        "Mountain View", State: "California", Country: "United States",
		CountryCode: "us", Postcode: "94041",
	},
	{
		DisplayName: "New York, United States",
		Point:       domain.GeoPoint{Lat: 40.7128, Lon: -74.0060},
		FeatureType: domain.FeatureCity,
		City:        "New York", State: "New York", Country: "United States",
		CountryCode: "us", Postcode: "10007",
	},
	{
		DisplayName: "Los Angeles, United States",
		Point:       domain.GeoPoint{Lat: 34.0522, Lon: -118.2437},
		FeatureType: domain.FeatureCity,
		City:        "Los Angeles", State: "California", Country: "United States",
		CountryCode: "us", Postcode: "90012",
	},
	{
		DisplayName: "Chicago, United States",
		Point:       domain.GeoPoint{Lat: 41.8781, Lon: -87.6298},
		FeatureType: domain.FeatureCity,
		City:        "Chicago", State: "Illinois", Country: "United States",
		CountryCode: "us", Postcode: "60602",
	},
}

// reverseRadius is how far a fixture place answers a reverse lookup.
const reverseRadius = 25_000.0

// Fixture serves deterministic offline data: a small gazetteer, constant
// weather and the in-process ephemeris.
type Fixture struct {
	ephemeris ports.Ephemeris
	geocoder  *fixtureGeocoder
	weather   *fixtureWeather
}

// NewFixture returns the offline data source.
func NewFixture() *Fixture {
	return &Fixture{
		ephemeris: ephemeris.NewLocal(),
		geocoder:  &fixtureGeocoder{},
		weather:   &fixtureWeather{now: time.Now},
	}
}

var _ ports.DataSource = (*Fixture)(nil)

func (f *Fixture) Name() string {
	return "fixture"
}

func (f *Fixture) Ephemeris() ports.Ephemeris {
	return f.ephemeris
}

func (f *Fixture) Geocoder() ports.Geocoder {
	return f.geocoder
}

func (f *Fixture) Weather() ports.WeatherProvider {
	return f.weather
}

type fixtureGeocoder struct{}

func (g *fixtureGeocoder) Search(ctx context.Context, q ports.SearchQuery) ([]domain.Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.Place
	for _, p := range fixturePlaces {
		if !matches(p, q) {
			continue
		}
		p.Provider = "fixture"
		out = append(out, p)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func matches(p domain.Place, q ports.SearchQuery) bool {
	if len(q.Countries) > 0 && !contains(q.Countries, p.CountryCode) {
		return false
	}
	switch q.FeatureType {
	case "city":
		if p.FeatureType != domain.FeatureCity {
			return false
		}
	case "settlement":
		if !domain.CityLike[p.FeatureType] {
			return false
		}
	}
	if q.Structured() {
		return p.Postcode == q.PostalCode
	}
	return strings.Contains(strings.ToLower(p.DisplayName), strings.ToLower(strings.TrimSpace(q.Text)))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// Reverse returns the nearest city-like fixture within reach.
func (g *fixtureGeocoder) Reverse(ctx context.Context, pt domain.GeoPoint) (domain.Place, error) {
	if err := ctx.Err(); err != nil {
		return domain.Place{}, err
	}
	var (
		best  domain.Place
		bestD = reverseRadius
		found bool
	)
	for _, p := range fixturePlaces {
		if !domain.CityLike[p.FeatureType] {
			continue
		}
		if d := geospatial.Distance(pt, p.Point); d <= bestD {
			best, bestD, found = p, d, true
		}
	}
	if !found {
		return domain.Place{}, domain.UpstreamNotFound("no place found at " + pt.String())
	}
	best.Provider = "fixture"
	return best, nil
}

type fixtureWeather struct {
	now func() time.Time
}

func (w *fixtureWeather) Forecast(ctx context.Context, q ports.WeatherQuery) (*domain.Weather, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f := func(v float64) *float64 { return &v }
	clearSky := 0
	now := w.now().UTC().Truncate(time.Hour)

	wx := &domain.Weather{
		Point:    q.Point,
		Provider: "fixture",
		Current: domain.CurrentConditions{
			Time:          now.Format("2006-01-02T15:04"),
			TemperatureC:  f(20),
			HumidityPct:   f(50),
			CloudCoverPct: f(20),
			VisibilityM:   f(24000),
			WindSpeedKmh:  f(8),
			WeatherCode:   &clearSky,
			Condition:     domain.ConditionClear,
		},
		Seeing:  domain.SeeingFromCloudCover(f(20)),
		Fetched: w.now().UTC(),
	}
	for h := 0; h < 24; h++ {
		wx.Hourly = append(wx.Hourly, domain.HourlyForecast{
			Time:                     now.Add(time.Duration(h) * time.Hour).Format("2006-01-02T15:04"),
			TemperatureC:             f(20),
			CloudCoverPct:            f(20),
			PrecipitationProbability: f(0),
			VisibilityM:              f(24000),
			WeatherCode:              &clearSky,
		})
	}
	for d := 0; d < q.Days; d++ {
		wx.Daily = append(wx.Daily, domain.DailyForecast{
			Date:            now.AddDate(0, 0, d).Format("2006-01-02"),
			TempMaxC:        f(24),
			TempMinC:        f(14),
			PrecipitationMm: f(0),
		})
	}
	return wx, nil
}
