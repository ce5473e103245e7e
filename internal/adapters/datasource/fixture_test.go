package datasource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
)

func TestFixture_SearchAndReverse(t *testing.T) {
	src := NewFixture()
	ctx := context.Background()

	places, err := src.Geocoder().Search(ctx, ports.SearchQuery{Text: "1600 Amphitheatre Parkway", Limit: 5})
	require.NoError(t, err)
	require.Len(t, places, 1)

	rev, err := src.Geocoder().Reverse(ctx, places[0].Point)
	require.NoError(t, err)
	assert.Equal(t, "Mountain View", rev.City)
	assert.Equal(t, domain.FeatureCity, rev.FeatureType)
}

func TestFixture_PostalSearch(t *testing.T) {
	places, err := NewFixture().Geocoder().Search(context.Background(), ports.SearchQuery{PostalCode: "94043", Limit: 5})
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "94043", places[0].Postcode)
}

func TestFixture_ReverseOcean(t *testing.T) {
	_, err := NewFixture().Geocoder().Reverse(context.Background(), domain.GeoPoint{Lat: 0, Lon: -140})
	assert.Equal(t, domain.KindUpstreamNotFound, domain.KindOf(err))
}

func TestFixture_Weather(t *testing.T) {
	wx, err := NewFixture().Weather().Forecast(context.Background(), ports.WeatherQuery{Point: domain.GeoPoint{Lat: 1, Lon: 1}, Days: 7})
	require.NoError(t, err)
	assert.Equal(t, 20.0, *wx.Current.CloudCoverPct)
	assert.Len(t, wx.Hourly, 24)
	assert.Len(t, wx.Daily, 7)
}

func TestSources_ExposeCollaborators(t *testing.T) {
	fx := NewFixture()
	assert.Equal(t, "fixture", fx.Name())
	assert.NotNil(t, fx.Ephemeris())
	assert.NotNil(t, fx.Geocoder())
	assert.NotNil(t, fx.Weather())

	live := NewLive(fx.Ephemeris(), fx.Geocoder(), fx.Weather())
	assert.Equal(t, "live", live.Name())
	assert.Equal(t, fx.Ephemeris(), live.Ephemeris())
	assert.Equal(t, fx.Geocoder(), live.Geocoder())
	assert.Equal(t, fx.Weather(), live.Weather())
}
