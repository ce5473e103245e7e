package domain

import "time"

// DefaultLightPollution is assumed when no measurement is available
// (Bortle-like 1..9 scale).
const DefaultLightPollution = 4

// SkyConditions is the weather-derived block of the dashboard payload.
type SkyConditions struct {
	CloudCoverPct  *float64 `json:"cloudCoverPct"`
	VisibilityM    *float64 `json:"visibilityM"`
	LightPollution int      `json:"lightPollution"`
	Seeing         string   `json:"seeing"`
}

// Dashboard is the composed payload the dashboard consumes.
type Dashboard struct {
	Location    Place              `json:"location"`
	Celestial   *CelestialSnapshot `json:"celestial"`
	Weather     *Weather           `json:"weather"`
	Sky         SkyConditions      `json:"sky"`
	Sunrise     *string            `json:"sunrise"`
	Sunset      *string            `json:"sunset"`
	Unavailable []string           `json:"unavailable,omitempty"`
	GeneratedAt time.Time          `json:"generatedAt"`
}
