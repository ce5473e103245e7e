package ports

import (
	"context"
	"errors"
	"time"

	"github.com/samirrijal/skywatch/internal/core/domain"
)

// ErrCacheMiss is returned by CacheStore.Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// CacheStore is a key/value store with per-entry expiry.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Flush(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter admits or rejects one request for a client key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSnapshot(ctx context.Context, key string, snap *domain.CelestialSnapshot) error
}
