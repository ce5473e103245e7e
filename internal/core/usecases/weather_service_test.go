package usecases_test

import (
	"context"
	"testing"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/core/usecases"
)

func TestWeatherService_CachesPerPointAndDays(t *testing.T) {
	provider := &mockWeather{}
	svc := usecases.NewWeatherService(provider, usecases.NewCacheManager(newMapStore()))
	p := domain.GeoPoint{Lat: 43.26, Lon: -2.93}
	ctx := context.Background()

	if _, hit, err := svc.Forecast(ctx, p, 0); err != nil || hit {
		t.Fatalf("first call: hit=%v err=%v", hit, err)
	}
	if _, hit, err := svc.Forecast(ctx, p, 0); err != nil || !hit {
		t.Fatalf("second call: hit=%v err=%v", hit, err)
	}
	if _, hit, _ := svc.Forecast(ctx, p, 7); hit {
		t.Fatal("different days must not share an entry")
	}
	if provider.calls.Load() != 2 {
		t.Fatalf("expected 2 provider calls, got %d", provider.calls.Load())
	}
}

func TestWeatherService_PassesDays(t *testing.T) {
	provider := &mockWeather{
		forecastFn: func(_ context.Context, q ports.WeatherQuery) (*domain.Weather, error) {
			if q.Days != 7 {
				t.Errorf("expected 7 days, got %d", q.Days)
			}
			return &domain.Weather{}, nil
		},
	}
	svc := usecases.NewWeatherService(provider, usecases.NewCacheManager(nil))
	if _, _, err := svc.Forecast(context.Background(), domain.GeoPoint{}, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWeatherService_RejectsDays(t *testing.T) {
	svc := usecases.NewWeatherService(&mockWeather{}, usecases.NewCacheManager(nil))
	for _, days := range []int{-1, usecases.MaxForecastDays + 1} {
		if _, _, err := svc.Forecast(context.Background(), domain.GeoPoint{}, days); !domain.IsKind(err, domain.KindInvalidArgument) {
			t.Errorf("days=%d: expected invalid argument, got %v", days, err)
		}
	}
}

func TestWeatherService_RejectsDaysMessageNamesRange(t *testing.T) {
	svc := usecases.NewWeatherService(&mockWeather{}, usecases.NewCacheManager(nil))
	_, _, err := svc.Forecast(context.Background(), domain.GeoPoint{}, usecases.MaxForecastDays+1)
	if err == nil || err.Error() != "days must be between 0 and 16" {
		t.Fatalf("unexpected message: %v", err)
	}
	if _, _, err := svc.Forecast(context.Background(), domain.GeoPoint{}, 0); err != nil {
		t.Fatalf("days=0 must be accepted: %v", err)
	}
}
