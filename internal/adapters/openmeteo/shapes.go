package openmeteo

import (
	"math"

	"github.com/samirrijal/skywatch/internal/core/domain"
)

// currentShape names the block and keys of one "now" payload variant.
type currentShape struct {
	name        string
	block       func(r rawForecast) map[string]any
	temperature string
	humidity    string
	cloudCover  string
	visibility  string
	windSpeed   string
	weatherCode string
}

// currentShapes are tried in order; the first whose block is present wins.
var currentShapes = []currentShape{
	{
		name:        "current",
		block:       func(r rawForecast) map[string]any { return r.Current },
		temperature: "temperature_2m",
		humidity:    "relative_humidity_2m",
		cloudCover:  "cloud_cover",
		visibility:  "visibility",
		windSpeed:   "wind_speed_10m",
		weatherCode: "weather_code",
	},
	{
		name:        "current_weather",
		block:       func(r rawForecast) map[string]any { return r.CurrentWeather },
		temperature: "temperature",
		windSpeed:   "windspeed",
		weatherCode: "weathercode",
	},
}

// hourlyShape names the keys of one hourly payload variant.
type hourlyShape struct {
	name          string
	marker        string
	temperature   string
	cloudCover    string
	precipitation string
	visibility    string
	weatherCode   string
	humidity      string
}

// hourlyShapes: the first shape whose marker key is present is used.
var hourlyShapes = []hourlyShape{
	{
		name:          "modern",
		marker:        "weather_code",
		temperature:   "temperature_2m",
		cloudCover:    "cloud_cover",
		precipitation: "precipitation_probability",
		visibility:    "visibility",
		weatherCode:   "weather_code",
		humidity:      "relative_humidity_2m",
	},
	{
		name:          "legacy",
		marker:        "weathercode",
		temperature:   "temperature_2m",
		cloudCover:    "cloudcover",
		precipitation: "precipitation_probability",
		visibility:    "visibility",
		weatherCode:   "weathercode",
		humidity:      "relativehumidity_2m",
	},
}

func parseCurrent(r rawForecast) (domain.CurrentConditions, bool) {
	for _, s := range currentShapes {
		b := s.block(r)
		if b == nil {
			continue
		}
		cc := domain.CurrentConditions{
			Time:          str(b["time"]),
			TemperatureC:  num(b, s.temperature),
			HumidityPct:   num(b, s.humidity),
			CloudCoverPct: num(b, s.cloudCover),
			VisibilityM:   num(b, s.visibility),
			WindSpeedKmh:  num(b, s.windSpeed),
			WeatherCode:   code(num(b, s.weatherCode)),
			Condition:     domain.ConditionUnknown,
		}
		if cc.WeatherCode != nil {
			cc.Condition = domain.ConditionFromWMO(*cc.WeatherCode)
		}
		return cc, true
	}
	return domain.CurrentConditions{}, false
}

// parseHourly returns nil when the upstream omitted the hourly block.
func parseHourly(h map[string]any) []domain.HourlyForecast {
	if h == nil {
		return nil
	}
	times := strs(h["time"])
	if len(times) == 0 {
		return nil
	}

	shape := hourlyShapes[0]
	for _, s := range hourlyShapes {
		if _, ok := h[s.marker]; ok {
			shape = s
			break
		}
	}

	temp := nums(h, shape.temperature)
	cloud := nums(h, shape.cloudCover)
	precip := nums(h, shape.precipitation)
	vis := nums(h, shape.visibility)
	codes := nums(h, shape.weatherCode)

	out := make([]domain.HourlyForecast, len(times))
	for i, t := range times {
		out[i] = domain.HourlyForecast{
			Time:                     t,
			TemperatureC:             at(temp, i),
			CloudCoverPct:            at(cloud, i),
			PrecipitationProbability: at(precip, i),
			VisibilityM:              at(vis, i),
			WeatherCode:              code(at(codes, i)),
		}
	}
	return out
}

func parseDaily(d map[string]any, days int) []domain.DailyForecast {
	if d == nil {
		return nil
	}
	dates := strs(d["time"])
	if len(dates) > days {
		dates = dates[:days]
	}
	tmax := nums(d, "temperature_2m_max")
	tmin := nums(d, "temperature_2m_min")
	precip := nums(d, "precipitation_sum")

	out := make([]domain.DailyForecast, len(dates))
	for i, date := range dates {
		out[i] = domain.DailyForecast{
			Date:            date,
			TempMaxC:        at(tmax, i),
			TempMinC:        at(tmin, i),
			PrecipitationMm: at(precip, i),
		}
	}
	return out
}

func num(m map[string]any, key string) *float64 {
	if key == "" {
		return nil
	}
	return toFloat(m[key])
}

func toFloat(v any) *float64 {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) {
		return nil
	}
	return &f
}

func nums(m map[string]any, key string) []*float64 {
	arr, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]*float64, len(arr))
	for i, v := range arr {
		out[i] = toFloat(v)
	}
	return out
}

func strs(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, s := range arr {
		out = append(out, str(s))
	}
	return out
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func at(vals []*float64, i int) *float64 {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}

func code(f *float64) *int {
	if f == nil {
		return nil
	}
	c := int(*f)
	return &c
}
