package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

// NewGeoPoint returns a range-checked point.
func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	p := GeoPoint{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

// Validate reports an InvalidArgument error unless both coordinates are
// finite and inside [-90,90] / [-180,180].
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
		return Invalid("latitude and longitude must be finite numbers")
	}
	if err := validate.Struct(p); err != nil {
		return Invalid(fmt.Sprintf("coordinates out of range (lat=%g, lon=%g)", p.Lat, p.Lon))
	}
	return nil
}

// ParseGeoPoint parses raw query strings into a validated point.
func ParseGeoPoint(rawLat, rawLon string) (GeoPoint, error) {
	rawLat, rawLon = strings.TrimSpace(rawLat), strings.TrimSpace(rawLon)
	if rawLat == "" || rawLon == "" {
		return GeoPoint{}, Invalid("lat and lon are required")
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return GeoPoint{}, Invalid("lat must be a number")
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return GeoPoint{}, Invalid("lon must be a number")
	}
	return NewGeoPoint(lat, lon)
}

// KeyPart renders the point for use inside a cache key. Full precision is
// kept so that two keys match only when the coordinates are identical.
func (p GeoPoint) KeyPart() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + ":" + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

// String implements fmt.Stringer.
func (p GeoPoint) String() string {
	return fmt.Sprintf("%.4f, %.4f", p.Lat, p.Lon)
}
