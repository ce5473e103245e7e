package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
)

// MaxForecastDays is the longest daily block the weather provider serves.
const MaxForecastDays = 16

// WeatherService fronts the weather provider with the cache.
type WeatherService struct {
	provider ports.WeatherProvider
	cache    *CacheManager
}

func NewWeatherService(provider ports.WeatherProvider, cache *CacheManager) *WeatherService {
	return &WeatherService{provider: provider, cache: cache}
}

// Forecast returns current and hourly conditions for p, plus a daily block
// when days > 0.
func (s *WeatherService) Forecast(ctx context.Context, p domain.GeoPoint, days int) (*domain.Weather, bool, error) {
	if err := p.Validate(); err != nil {
		return nil, false, err
	}
	if days < 0 || days > MaxForecastDays {
		return nil, false, domain.Invalid(fmt.Sprintf("days must be between 0 and %d", MaxForecastDays))
	}

	key := fmt.Sprintf("wx:%s:%d", p.KeyPart(), days)
	return ReadThrough(ctx, s.cache, "weather", key, WeatherTTL,
		func(ctx context.Context) (*domain.Weather, error) {
			return s.provider.Forecast(ctx, ports.WeatherQuery{Point: p, Days: days})
		})
}
