package domain

import "time"

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionFog     Condition = "fog"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
)

// ConditionFromWMO maps a WMO weather interpretation code.
func ConditionFromWMO(code int) Condition {
	switch {
	case code == 0 || code == 1:
		return ConditionClear
	case code == 2 || code == 3:
		return ConditionCloudy
	case code == 45 || code == 48:
		return ConditionFog
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code >= 95 && code <= 99:
		return ConditionStorm
	default:
		return ConditionUnknown
	}
}

// CurrentConditions is the normalized "now" block. Pointer fields are nil
// when the provider did not report them.
type CurrentConditions struct {
	Time          string    `json:"time"`
	TemperatureC  *float64  `json:"temperatureC"`
	HumidityPct   *float64  `json:"humidityPct"`
	CloudCoverPct *float64  `json:"cloudCoverPct"`
	VisibilityM   *float64  `json:"visibilityM"`
	WindSpeedKmh  *float64  `json:"windSpeedKmh"`
	WeatherCode   *int      `json:"weatherCode"`
	Condition     Condition `json:"condition"`
}

// HourlyForecast is one hour of forecast.
type HourlyForecast struct {
	Time                     string   `json:"time"`
	TemperatureC             *float64 `json:"temperatureC"`
	CloudCoverPct            *float64 `json:"cloudCoverPct"`
	PrecipitationProbability *float64 `json:"precipitationProbability"`
	VisibilityM              *float64 `json:"visibilityM"`
	WeatherCode              *int     `json:"weatherCode"`
}

// DailyForecast is one day of forecast.
type DailyForecast struct {
	Date            string   `json:"date"`
	TempMaxC        *float64 `json:"tempMaxC"`
	TempMinC        *float64 `json:"tempMinC"`
	PrecipitationMm *float64 `json:"precipitationMm"`
}

// Weather is the gateway's normalized result. Hourly is nil (JSON null)
// when the upstream omitted the hourly block.
type Weather struct {
	Point    GeoPoint          `json:"point"`
	Provider string            `json:"provider"`
	Current  CurrentConditions `json:"current"`
	Hourly   []HourlyForecast  `json:"hourly"`
	Daily    []DailyForecast   `json:"daily,omitempty"`
	Seeing   string            `json:"seeing"`
	Fetched  time.Time         `json:"fetchedAt"`
}

// SeeingFromCloudCover grades observing conditions from cloud cover.
func SeeingFromCloudCover(pct *float64) string {
	if pct == nil {
		return "unknown"
	}
	switch c := *pct; {
	case c < 15:
		return "excellent"
	case c < 40:
		return "good"
	case c < 70:
		return "fair"
	default:
		return "poor"
	}
}
