package domain

import (
	"strings"
	"time"
)

// ObservationRequest is the unit of computation: where, when and, optionally,
// in which zone local times should be rendered.
type ObservationRequest struct {
	Point    GeoPoint  `json:"point"`
	Instant  time.Time `json:"iso"`
	Timezone string    `json:"timezone,omitempty"`
}

// Accepted instant layouts, most specific first.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseObservation validates raw query values and canonicalizes them.
// An empty iso means now; instants without an offset are read as UTC.
func ParseObservation(rawLat, rawLon, rawISO, rawTZ string, now time.Time) (ObservationRequest, error) {
	point, err := ParseGeoPoint(rawLat, rawLon)
	if err != nil {
		return ObservationRequest{}, err
	}

	instant := now
	if iso := strings.TrimSpace(rawISO); iso != "" {
		instant, err = ParseInstant(iso)
		if err != nil {
			return ObservationRequest{}, err
		}
	}

	tz := strings.TrimSpace(rawTZ)
	if tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return ObservationRequest{}, Invalid("unknown timezone " + tz)
		}
	}

	return ObservationRequest{Point: point, Instant: instant.UTC(), Timezone: tz}, nil
}

// ParseInstant parses an ISO-8601 timestamp in any of the accepted layouts.
func ParseInstant(iso string) (time.Time, error) {
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, Invalid("invalid iso datetime " + iso)
}

// Minute returns the instant floored to the whole minute.
func (r ObservationRequest) Minute() time.Time {
	return r.Instant.UTC().Truncate(time.Minute)
}

// CacheKey identifies every request that shares one computation: same
// point, same minute.
func (r ObservationRequest) CacheKey() string {
	return "celestial:" + r.Point.KeyPart() + ":" + r.Minute().Format(time.RFC3339)
}

// Location resolves the request timezone, falling back to UTC.
func (r ObservationRequest) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
