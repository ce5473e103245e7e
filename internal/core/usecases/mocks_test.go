package usecases_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
)

// --- Mock CacheStore ---

type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return v, nil
}

func (s *mapStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *mapStore) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[string][]byte{}
	return nil
}

func (s *mapStore) Ping(context.Context) error { return nil }

// --- Mock Ephemeris ---

type mockEphemeris struct {
	positionFn func(ctx context.Context, body domain.Body, at time.Time, obs domain.GeoPoint) (domain.HorizontalPosition, error)
	riseSetFn  func(ctx context.Context, body domain.Body, at time.Time, obs domain.GeoPoint) (domain.RiseSet, error)
	phaseFn    func(ctx context.Context, at time.Time) (float64, error)

	positionCalls atomic.Int64
}

func (m *mockEphemeris) Position(ctx context.Context, body domain.Body, at time.Time, obs domain.GeoPoint) (domain.HorizontalPosition, error) {
	m.positionCalls.Add(1)
	if m.positionFn != nil {
		return m.positionFn(ctx, body, at, obs)
	}
	return domain.HorizontalPosition{Altitude: 10, Azimuth: 90}, nil
}

func (m *mockEphemeris) RiseSet(ctx context.Context, body domain.Body, at time.Time, obs domain.GeoPoint) (domain.RiseSet, error) {
	if m.riseSetFn != nil {
		return m.riseSetFn(ctx, body, at, obs)
	}
	rise, set := at.Add(-2*time.Hour), at.Add(6*time.Hour)
	return domain.RiseSet{Rise: &rise, Set: &set}, nil
}

func (m *mockEphemeris) Phase(ctx context.Context, at time.Time) (float64, error) {
	if m.phaseFn != nil {
		return m.phaseFn(ctx, at)
	}
	return 180, nil
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	searchFn  func(ctx context.Context, q ports.SearchQuery) ([]domain.Place, error)
	reverseFn func(ctx context.Context, p domain.GeoPoint) (domain.Place, error)

	mu       sync.Mutex
	searches []ports.SearchQuery
}

func (m *mockGeocoder) Search(ctx context.Context, q ports.SearchQuery) ([]domain.Place, error) {
	m.mu.Lock()
	m.searches = append(m.searches, q)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return nil, nil
}

func (m *mockGeocoder) Reverse(ctx context.Context, p domain.GeoPoint) (domain.Place, error) {
	if m.reverseFn != nil {
		return m.reverseFn(ctx, p)
	}
	return domain.Place{}, domain.UpstreamNotFound("no match")
}

// --- Mock WeatherProvider ---

type mockWeather struct {
	forecastFn func(ctx context.Context, q ports.WeatherQuery) (*domain.Weather, error)
	calls      atomic.Int64
}

func (m *mockWeather) Forecast(ctx context.Context, q ports.WeatherQuery) (*domain.Weather, error) {
	m.calls.Add(1)
	if m.forecastFn != nil {
		return m.forecastFn(ctx, q)
	}
	cloud := 10.0
	return &domain.Weather{Point: q.Point, Provider: "mock", Current: domain.CurrentConditions{CloudCoverPct: &cloud}}, nil
}

// --- Recording EventPublisher ---

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) PublishSnapshot(_ context.Context, key string, _ *domain.CelestialSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}
