// Package datasource bundles the ephemeris, geocoder and weather provider
// into the single capability the services depend on.
package datasource

import (
	"github.com/samirrijal/skywatch/internal/core/ports"
)

// Live talks to real collaborators.
type Live struct {
	ephemeris ports.Ephemeris
	geocoder  ports.Geocoder
	weather   ports.WeatherProvider
}

// NewLive bundles already-constructed collaborators.
func NewLive(e ports.Ephemeris, g ports.Geocoder, w ports.WeatherProvider) *Live {
	return &Live{ephemeris: e, geocoder: g, weather: w}
}

var _ ports.DataSource = (*Live)(nil)

func (l *Live) Name() string {
	return "live"
}

func (l *Live) Ephemeris() ports.Ephemeris {
	return l.ephemeris
}

func (l *Live) Geocoder() ports.Geocoder {
	return l.geocoder
}

func (l *Live) Weather() ports.WeatherProvider {
	return l.weather
}

