package http

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/core/usecases"
)

// Broker reports message-broker connectivity for readiness checks.
type Broker interface {
	Connected() bool
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sky       *usecases.SkyService
	Places    *usecases.PlaceService
	Weather   *usecases.WeatherService
	Dashboard *usecases.DashboardService
	Cache     *usecases.CacheManager
	Limiter   ports.RateLimiter
	Broker    Broker

	// Source names the active data source ("live" or "fixture").
	Source string
	// APIKey guards weather-bearing routes when non-empty.
	APIKey string
	// RequestTimeout bounds each API request. Zero means 15s.
	RequestTimeout time.Duration
	// Clock drives "now" defaults and websocket pushes. Nil means the real clock.
	Clock clockwork.Clock
}

func (d *Dependencies) timeout() time.Duration {
	if d.RequestTimeout <= 0 {
		return 15 * time.Second
	}
	return d.RequestTimeout
}

func (d *Dependencies) clock() clockwork.Clock {
	if d.Clock == nil {
		return clockwork.NewRealClock()
	}
	return d.Clock
}
