// Package openmeteo fetches forecasts from the Open-Meteo API and normalizes
// its payload variants into domain.Weather.
package openmeteo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/pkg/upstream"
)

const DefaultBaseURL = "https://api.open-meteo.com"

// MaxDays is the longest forecast Open-Meteo serves.
const MaxDays = 16

var (
	currentVars = []string{"temperature_2m", "relative_humidity_2m", "cloud_cover", "visibility", "wind_speed_10m", "weather_code"}
	hourlyVars  = []string{"temperature_2m", "cloud_cover", "precipitation_probability", "visibility", "weather_code"}
	dailyVars   = []string{"temperature_2m_max", "temperature_2m_min", "precipitation_sum"}
)

// rawForecast keeps each block loosely typed; the shape tables in shapes.go
// pick the fields.
type rawForecast struct {
	Current        map[string]any `json:"current"`
	CurrentWeather map[string]any `json:"current_weather"`
	Hourly         map[string]any `json:"hourly"`
	Daily          map[string]any `json:"daily"`
	Error          bool           `json:"error"`
	Reason         string         `json:"reason"`
}

// Client implements ports.WeatherProvider.
type Client struct {
	client  *upstream.Client
	baseURL string
	now     func() time.Time
}

// New creates a client; an empty baseURL means the public API.
func New(client *upstream.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{client: client, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

var _ ports.WeatherProvider = (*Client)(nil)

// Forecast fetches current conditions and the hourly block, plus a daily
// block when q.Days > 0.
func (c *Client) Forecast(ctx context.Context, q ports.WeatherQuery) (*domain.Weather, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(q.Point.Lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(q.Point.Lon, 'f', -1, 64))
	params.Set("current", strings.Join(currentVars, ","))
	params.Set("hourly", strings.Join(hourlyVars, ","))
	params.Set("timezone", "UTC")
	if q.Days > 0 {
		params.Set("daily", strings.Join(dailyVars, ","))
		params.Set("forecast_days", strconv.Itoa(min(q.Days, MaxDays)))
	} else {
		params.Set("forecast_days", "2")
	}

	var raw rawForecast
	if err := c.client.GetJSON(ctx, c.baseURL+"/v1/forecast?"+params.Encode(), nil, &raw); err != nil {
		return nil, fmt.Errorf("open-meteo forecast: %w", err)
	}
	if raw.Error {
		return nil, domain.Upstream("open-meteo rejected request: "+raw.Reason, 400, nil)
	}
	return normalize(raw, q, c.now())
}

func normalize(raw rawForecast, q ports.WeatherQuery, fetched time.Time) (*domain.Weather, error) {
	current, ok := parseCurrent(raw)
	if !ok {
		return nil, domain.Upstream("open-meteo returned no current conditions", 502, nil)
	}
	w := &domain.Weather{
		Point:    q.Point,
		Provider: "open-meteo",
		Current:  current,
		Hourly:   parseHourly(raw.Hourly),
		Seeing:   domain.SeeingFromCloudCover(current.CloudCoverPct),
		Fetched:  fetched.UTC(),
	}
	if q.Days > 0 {
		w.Daily = parseDaily(raw.Daily, q.Days)
	}
	return w, nil
}
