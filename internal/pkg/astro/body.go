// Package astro places the Sun, the Moon and the naked-eye planets on the
// observer's sky. The astronomy comes from github.com/soniakeys/meeus; this
// package only picks the algorithms, converts frames and units, and adds the
// horizon search. Planets use the mean orbital elements of date, so they are
// good to a fraction of a degree, which is plenty for deciding what is up.
package astro

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Body is a solar-system body the ephemeris can place.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
)

var bodyNames = map[Body]string{
	Sun: "Sun", Moon: "Moon", Mercury: "Mercury", Venus: "Venus",
	Mars: "Mars", Jupiter: "Jupiter", Saturn: "Saturn",
}

func (b Body) String() string { return bodyNames[b] }

// ParseBody is the inverse of Body.String.
func ParseBody(name string) (Body, bool) {
	for b, n := range bodyNames {
		if n == name {
			return b, true
		}
	}
	return 0, false
}

// Observer is a point on the Earth's surface, degrees (east positive).
type Observer struct {
	Lat, Lon float64
}

// Equatorial coordinates: right ascension and declination in degrees.
type Equatorial struct {
	RA, Dec float64
	// Dist is in AU, or kilometres for the Moon.
	Dist float64
}

// Horizontal coordinates in degrees; azimuth measured from north through east.
type Horizontal struct {
	Altitude, Azimuth float64
}

// JulianDay returns the Julian day of t. The difference between UT and
// dynamical time (about a minute) is ignored throughout.
func JulianDay(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

const rad2deg = 180 / math.Pi

// rev folds an angle in degrees into [0,360).
func rev(x float64) float64 {
	x = math.Mod(x, 360)
	if x < 0 {
		x += 360
	}
	if x >= 360 {
		x = 0
	}
	return x
}
