package domain

import (
	"math"
	"time"
)

// Body identifies a tracked solar-system body.
type Body string

const (
	Sun     Body = "Sun"
	Moon    Body = "Moon"
	Mercury Body = "Mercury"
	Venus   Body = "Venus"
	Mars    Body = "Mars"
	Jupiter Body = "Jupiter"
	Saturn  Body = "Saturn"
)

// TrackedBodies is the ordered set every snapshot reports on.
var TrackedBodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn}

// Kind returns the display category of the body.
func (b Body) Kind() string {
	switch b {
	case Sun:
		return "Star"
	case Moon:
		return "Moon"
	default:
		return "Planet"
	}
}

// HorizontalPosition is an altitude/azimuth pair in degrees.
type HorizontalPosition struct {
	Altitude float64 `json:"altitude"`
	Azimuth  float64 `json:"azimuth"`
}

// RiseSet holds the next rising and setting instants; nil means no event in
// the search window.
type RiseSet struct {
	Rise *time.Time `json:"rise"`
	Set  *time.Time `json:"set"`
}

// TrackPoint is one sample of a body's hourly track.
type TrackPoint struct {
	Time     time.Time `json:"time"`
	Altitude float64   `json:"altitude"`
	Azimuth  float64   `json:"azimuth"`
	Visible  bool      `json:"visible"`
}

// BodySnapshot is one body's state at the request instant.
type BodySnapshot struct {
	Name            string       `json:"name"`
	Type            string       `json:"type"`
	AltitudeDeg     float64      `json:"altitudeDeg"`
	AzimuthDeg      float64      `json:"azimuthDeg"`
	Direction       string       `json:"direction"`
	Visible         bool         `json:"visible"`
	RiseISO         *string      `json:"riseISO"`
	SetISO          *string      `json:"setISO"`
	RiseLocal       string       `json:"riseLocal,omitempty"`
	SetLocal        string       `json:"setLocal,omitempty"`
	PhaseDeg        *float64     `json:"phaseDeg,omitempty"`
	PhaseName       string       `json:"phaseName,omitempty"`
	Illumination    *float64     `json:"illumination,omitempty"`
	Track           []TrackPoint `json:"track,omitempty"`
	BestViewingTime *time.Time   `json:"bestViewingTime,omitempty"`
}

// SnapshotRequest echoes the canonical request inside a snapshot.
type SnapshotRequest struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	ISO      string  `json:"iso"`
	Timezone string  `json:"timezone,omitempty"`
}

// CelestialSnapshot is the full sky state for one observation request.
type CelestialSnapshot struct {
	Request     SnapshotRequest `json:"request"`
	Bodies      []BodySnapshot  `json:"bodies"`
	Source      string          `json:"source"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// Body returns the snapshot entry for name, if present.
func (s *CelestialSnapshot) Body(name Body) (BodySnapshot, bool) {
	for _, b := range s.Bodies {
		if b.Name == string(name) {
			return b, true
		}
	}
	return BodySnapshot{}, false
}

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CompassDirection maps an azimuth to the 16-point compass rose.
func CompassDirection(az float64) string {
	if math.IsNaN(az) {
		return ""
	}
	idx := int(math.Round(NormalizeDegrees(az)/22.5)) % 16
	return compassPoints[idx]
}

// NormalizeDegrees folds an angle into [0,360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// MoonIllumination is the illuminated fraction for a phase angle
// (0 = new, 180 = full).
func MoonIllumination(phaseDeg float64) float64 {
	return (1 - math.Cos(phaseDeg*math.Pi/180)) / 2
}

// MoonPhaseName names the phase for a phase angle.
func MoonPhaseName(phaseDeg float64) string {
	p := NormalizeDegrees(phaseDeg)
	switch {
	case p < 11.25 || p >= 348.75:
		return "New Moon"
	case p < 78.75:
		return "Waxing Crescent"
	case p < 101.25:
		return "First Quarter"
	case p < 168.75:
		return "Waxing Gibbous"
	case p < 191.25:
		return "Full Moon"
	case p < 258.75:
		return "Waning Gibbous"
	case p < 281.25:
		return "Last Quarter"
	default:
		return "Waning Crescent"
	}
}
