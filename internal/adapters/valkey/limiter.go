package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/skywatch/internal/core/ports"
)

// Limiter is a fixed-window rate limiter shared by every instance that
// points at the same Valkey. The window starts with the first INCR of a key;
// PEXPIRE NX pins its end so later increments do not extend it.
type Limiter struct {
	client valkey.Client
	limit  int
	window time.Duration
	prefix string
}

// NewLimiter admits limit requests per key per window.
func NewLimiter(client valkey.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window, prefix: "ratelimit:"}
}

var _ ports.RateLimiter = (*Limiter)(nil)

// Allow increments the caller's window counter.
func (l *Limiter) Allow(ctx context.Context, key string) (ports.Decision, error) {
	k := l.prefix + key
	resps := l.client.DoMulti(ctx,
		l.client.B().Incr().Key(k).Build(),
		l.client.B().Pexpire().Key(k).Milliseconds(l.window.Milliseconds()).Nx().Build(),
		l.client.B().Pttl().Key(k).Build(),
	)
	count, err := resps[0].AsInt64()
	if err != nil {
		return ports.Decision{}, fmt.Errorf("valkey incr %s: %w", k, err)
	}
	ttl, err := resps[2].AsInt64()
	if err != nil || ttl < 0 {
		ttl = l.window.Milliseconds()
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return ports.Decision{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(time.Duration(ttl) * time.Millisecond),
	}, nil
}
