package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/pkg/upstream"
)

const mapboxPlace = `{"type":"FeatureCollection","features":[{
  "place_name": "Mountain View, California, United States",
  "text": "Mountain View",
  "center": [-122.0839, 37.3861],
  "place_type": ["place"],
  "context": [
    {"id": "postcode.1", "text": "94041"},
    {"id": "region.2", "text": "California", "short_code": "US-CA"},
    {"id": "country.3", "text": "United States", "short_code": "us"}
  ]
}]}`

func TestMapbox_Search(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(mapboxPlace))
	}))
	defer srv.Close()

	m := NewMapbox(upstream.New("mapbox-test"), srv.URL, "tok")
	places, err := m.Search(context.Background(), ports.SearchQuery{Text: "Mountain View", FeatureType: "city", Limit: 3})
	require.NoError(t, err)
	require.Len(t, places, 1)

	assert.True(t, strings.HasPrefix(got.URL.Path, "/geocoding/v5/mapbox.places/Mountain"))
	assert.Equal(t, "tok", got.URL.Query().Get("access_token"))
	assert.Equal(t, "place", got.URL.Query().Get("types"))

	p := places[0]
	assert.Equal(t, domain.FeatureCity, p.FeatureType)
	assert.Equal(t, "Mountain View", p.City)
	assert.Equal(t, "California", p.State)
	assert.Equal(t, "us", p.CountryCode)
	assert.Equal(t, "94041", p.Postcode)
	assert.InDelta(t, 37.3861, p.Point.Lat, 1e-9)
	assert.InDelta(t, -122.0839, p.Point.Lon, 1e-9)
}

func TestMapbox_PostalUsesPostcodeType(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	places, err := NewMapbox(upstream.New("mapbox-test"), srv.URL, "tok").
		Search(context.Background(), ports.SearchQuery{PostalCode: "94043", Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, places)
	assert.Equal(t, "postcode", got.URL.Query().Get("types"))
	assert.Contains(t, got.URL.Path, "94043.json")
}

func TestMapbox_ReverseEmptyIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	_, err := NewMapbox(upstream.New("mapbox-test"), srv.URL, "tok").
		Reverse(context.Background(), domain.GeoPoint{Lat: 10, Lon: 10})
	assert.Equal(t, domain.KindUpstreamNotFound, domain.KindOf(err))
}
