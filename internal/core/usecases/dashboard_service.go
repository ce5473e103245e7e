package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/samirrijal/skywatch/internal/core/domain"
)

// DashboardService composes snapshot, weather and place into one payload.
type DashboardService struct {
	sky            *SkyService
	weather        *WeatherService
	places         *PlaceService
	lightPollution int
	now            func() time.Time
}

// NewDashboardService creates the composer. lightPollution outside 1..9
// falls back to the default.
func NewDashboardService(sky *SkyService, weather *WeatherService, places *PlaceService, lightPollution int) *DashboardService {
	if lightPollution < 1 || lightPollution > 9 {
		lightPollution = domain.DefaultLightPollution
	}
	return &DashboardService{sky: sky, weather: weather, places: places, lightPollution: lightPollution, now: time.Now}
}

// Compose fetches the three parts concurrently. Only the snapshot is
// required: a weather failure leaves the weather block null and a place
// failure yields the degraded placeholder. Both are listed in Unavailable.
func (s *DashboardService) Compose(ctx context.Context, req domain.ObservationRequest) (*domain.Dashboard, error) {
	var (
		snap     *domain.CelestialSnapshot
		snapErr  error
		wx       *domain.Weather
		wxErr    error
		place    domain.Place
		placeErr error
	)

	var wg conc.WaitGroup
	wg.Go(func() { snap, _, snapErr = s.sky.Snapshot(ctx, req, SnapshotOptions{}) })
	wg.Go(func() { wx, _, wxErr = s.weather.Forecast(ctx, req.Point, 0) })
	wg.Go(func() { place, placeErr = s.places.Reverse(ctx, req.Point) })
	wg.Wait()

	if snapErr != nil {
		return nil, snapErr
	}

	d := &domain.Dashboard{
		Celestial:   snap,
		GeneratedAt: s.now().UTC(),
	}

	if placeErr != nil {
		slog.InfoContext(ctx, "dashboard place degraded", "error", placeErr)
		d.Location = domain.DegradedPlace(req.Point)
		d.Unavailable = append(d.Unavailable, "location")
	} else {
		d.Location = place
	}

	d.Sky = domain.SkyConditions{LightPollution: s.lightPollution, Seeing: domain.SeeingFromCloudCover(nil)}
	if wxErr != nil {
		slog.WarnContext(ctx, "dashboard weather unavailable", "error", wxErr)
		d.Unavailable = append(d.Unavailable, "weather")
	} else {
		d.Weather = wx
		d.Sky.CloudCoverPct = wx.Current.CloudCoverPct
		d.Sky.VisibilityM = wx.Current.VisibilityM
		d.Sky.Seeing = domain.SeeingFromCloudCover(wx.Current.CloudCoverPct)
	}

	if sun, ok := snap.Body(domain.Sun); ok {
		d.Sunrise, d.Sunset = sun.RiseISO, sun.SetISO
	}
	return d, nil
}
