package usecases

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/pkg/flight"
	"github.com/samirrijal/skywatch/internal/pkg/metrics"
)

// Base TTLs per cache domain.
const (
	CelestialTTL = 300 * time.Second
	GeocodeTTL   = 24 * time.Hour
	WeatherTTL   = 30 * time.Minute
)

// JitterFraction is the maximum relative deviation applied to a base TTL.
const JitterFraction = 0.1

// CacheManager is the read-through layer over a CacheStore. Every Set draws
// an independent jitter so entries written together do not expire together.
type CacheManager struct {
	store ports.CacheStore
	group flight.Group[any]

	mu  sync.Mutex
	rng *rand.Rand
}

// CacheOption configures a CacheManager.
type CacheOption func(*CacheManager)

// WithLoadTimeout bounds a load shared by concurrent misses.
func WithLoadTimeout(d time.Duration) CacheOption {
	return func(m *CacheManager) { m.group.Timeout = d }
}

// WithRand makes the jitter deterministic.
func WithRand(r *rand.Rand) CacheOption {
	return func(m *CacheManager) { m.rng = r }
}

// NewCacheManager wraps store. A nil store disables caching.
func NewCacheManager(store ports.CacheStore, opts ...CacheOption) *CacheManager {
	m := &CacheManager{store: store}
	for _, o := range opts {
		o(m)
	}
	return m
}

// uniform returns a draw from [-1, 1).
func (m *CacheManager) uniform() float64 {
	if m.rng == nil {
		return rand.Float64()*2 - 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64()*2 - 1
}

// EffectiveTTL is base ± up to 10%, rounded to whole seconds of jitter.
func (m *CacheManager) EffectiveTTL(base time.Duration) time.Duration {
	jitter := math.Round(base.Seconds() * JitterFraction * m.uniform())
	return base + time.Duration(jitter)*time.Second
}

// Get returns the stored bytes, or false on a miss or backend error.
func (m *CacheManager) Get(ctx context.Context, key string) ([]byte, bool) {
	if m.store == nil {
		return nil, false
	}
	data, err := m.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			metrics.CacheErrors.WithLabelValues("get").Inc()
			slog.WarnContext(ctx, "cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

// Set stores value with a jittered TTL derived from base.
func (m *CacheManager) Set(ctx context.Context, key string, value []byte, base time.Duration) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Set(ctx, key, value, m.EffectiveTTL(base)); err != nil {
		metrics.CacheErrors.WithLabelValues("set").Inc()
		return err
	}
	return nil
}

// Flush empties the backing store.
func (m *CacheManager) Flush(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	return m.store.Flush(ctx)
}

// Ping checks the backing store.
func (m *CacheManager) Ping(ctx context.Context) error {
	if m.store == nil {
		return errors.New("cache not configured")
	}
	return m.store.Ping(ctx)
}

// ReadThrough returns the cached T for key, or calls load, stores its result
// for base (jittered) and returns it. Concurrent misses on one key share a
// single load that outlives any one caller's cancellation. A value that no
// longer decodes is treated as a miss. hit reports whether the value came
// from the cache.
func ReadThrough[T any](ctx context.Context, m *CacheManager, label, key string, base time.Duration, load func(context.Context) (T, error)) (val T, hit bool, err error) {
	if data, ok := m.Get(ctx, key); ok {
		if err := json.Unmarshal(data, &val); err == nil {
			metrics.CacheHits.WithLabelValues(label).Inc()
			return val, true, nil
		}
		slog.WarnContext(ctx, "discarding undecodable cache entry", "key", key)
	}
	metrics.CacheMisses.WithLabelValues(label).Inc()

	v, err := m.group.Do(ctx, key, func(ctx context.Context) (any, error) {
		fresh, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(fresh); err == nil {
			if err := m.Set(ctx, key, data, base); err != nil {
				slog.WarnContext(ctx, "cache set failed", "key", key, "error", err)
			}
		}
		return fresh, nil
	})
	if err != nil {
		return val, false, err
	}
	return v.(T), false, nil
}
