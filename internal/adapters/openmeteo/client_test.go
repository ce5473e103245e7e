package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/pkg/upstream"
)

const modernPayload = `{
  "current": {"time": "2025-05-10T18:00", "temperature_2m": 21.4, "relative_humidity_2m": 55,
              "cloud_cover": 12, "visibility": 24140, "wind_speed_10m": 9.7, "weather_code": 1},
  "hourly": {"time": ["2025-05-10T18:00", "2025-05-10T19:00"],
             "temperature_2m": [21.4, 20.9], "cloud_cover": [12, null],
             "precipitation_probability": [0, 5], "visibility": [24140, 24000],
             "weather_code": [1, 3]}
}`

const legacyPayload = `{
  "current_weather": {"time": "2025-05-10T18:00", "temperature": 18.2, "windspeed": 4.1, "weathercode": 61},
  "hourly": {"time": ["2025-05-10T18:00"], "temperature_2m": [18.2], "cloudcover": [88],
             "relativehumidity_2m": [90], "weathercode": [61]}
}`

func serve(t *testing.T, body string, inspect func(*http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			inspect(r)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestForecast_ModernShape(t *testing.T) {
	srv := serve(t, modernPayload, func(r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		assert.Equal(t, "37.39", r.URL.Query().Get("latitude"))
		assert.Empty(t, r.URL.Query().Get("daily"))
	})

	w, err := New(upstream.New("openmeteo-test"), srv.URL).Forecast(context.Background(),
		ports.WeatherQuery{Point: domain.GeoPoint{Lat: 37.39, Lon: -122.08}})
	require.NoError(t, err)

	require.NotNil(t, w.Current.CloudCoverPct)
	assert.Equal(t, 12.0, *w.Current.CloudCoverPct)
	assert.Equal(t, domain.ConditionClear, w.Current.Condition)
	assert.Equal(t, "excellent", w.Seeing)

	require.Len(t, w.Hourly, 2)
	assert.Nil(t, w.Hourly[1].CloudCoverPct, "null samples stay null")
	require.NotNil(t, w.Hourly[1].WeatherCode)
	assert.Equal(t, 3, *w.Hourly[1].WeatherCode)
	assert.Nil(t, w.Daily)
}

func TestForecast_LegacyShape(t *testing.T) {
	srv := serve(t, legacyPayload, nil)

	w, err := New(upstream.New("openmeteo-test"), srv.URL).Forecast(context.Background(),
		ports.WeatherQuery{Point: domain.GeoPoint{Lat: 1, Lon: 2}})
	require.NoError(t, err)

	require.NotNil(t, w.Current.TemperatureC)
	assert.Equal(t, 18.2, *w.Current.TemperatureC)
	assert.Nil(t, w.Current.CloudCoverPct)
	assert.Equal(t, domain.ConditionRain, w.Current.Condition)
	assert.Equal(t, "unknown", w.Seeing)

	require.Len(t, w.Hourly, 1)
	require.NotNil(t, w.Hourly[0].CloudCoverPct)
	assert.Equal(t, 88.0, *w.Hourly[0].CloudCoverPct)
	assert.Equal(t, 61, *w.Hourly[0].WeatherCode)
}

func TestForecast_MissingHourlyIsNull(t *testing.T) {
	srv := serve(t, `{"current_weather": {"time": "2025-05-10T18:00", "temperature": 10, "weathercode": 0}}`, nil)

	w, err := New(upstream.New("openmeteo-test"), srv.URL).Forecast(context.Background(),
		ports.WeatherQuery{Point: domain.GeoPoint{Lat: 1, Lon: 2}})
	require.NoError(t, err)
	assert.Nil(t, w.Hourly)
}

func TestForecast_Daily(t *testing.T) {
	body := `{
	  "current": {"time": "2025-05-10T00:00", "temperature_2m": 15, "weather_code": 0},
	  "daily": {"time": ["2025-05-10","2025-05-11","2025-05-12"],
	            "temperature_2m_max": [20, 21, 22], "temperature_2m_min": [10, 11, 12],
	            "precipitation_sum": [0, 1.2, 0]}
	}`
	srv := serve(t, body, func(r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("forecast_days"))
		assert.NotEmpty(t, r.URL.Query().Get("daily"))
	})

	w, err := New(upstream.New("openmeteo-test"), srv.URL).Forecast(context.Background(),
		ports.WeatherQuery{Point: domain.GeoPoint{Lat: 1, Lon: 2}, Days: 3})
	require.NoError(t, err)
	require.Len(t, w.Daily, 3)
	assert.Equal(t, "2025-05-11", w.Daily[1].Date)
	assert.Equal(t, 1.2, *w.Daily[1].PrecipitationMm)
}

func TestForecast_NoCurrentBlock(t *testing.T) {
	srv := serve(t, `{"hourly": {"time": []}}`, nil)

	_, err := New(upstream.New("openmeteo-test"), srv.URL).Forecast(context.Background(),
		ports.WeatherQuery{Point: domain.GeoPoint{Lat: 1, Lon: 2}})
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstreamFailure, domain.KindOf(err))
}
