// Package ratelimit implements an in-process fixed-window request limiter.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/samirrijal/skywatch/internal/core/ports"
)

type window struct {
	start time.Time
	count int
}

// FixedWindow counts requests per key in fixed windows. The count of a
// window is capped at limit+1, so it never grows past the first rejection.
type FixedWindow struct {
	limit  int
	period time.Duration
	clock  clockwork.Clock

	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
}

// Option configures a FixedWindow.
type Option func(*FixedWindow)

// WithClock overrides the time source.
func WithClock(c clockwork.Clock) Option {
	return func(f *FixedWindow) { f.clock = c }
}

// NewFixedWindow admits at most limit requests per key in each period.
func NewFixedWindow(limit int, period time.Duration, opts ...Option) *FixedWindow {
	f := &FixedWindow{
		limit:   limit,
		period:  period,
		clock:   clockwork.NewRealClock(),
		windows: make(map[string]*window),
	}
	for _, o := range opts {
		o(f)
	}
	f.lastSweep = f.clock.Now()
	return f
}

var _ ports.RateLimiter = (*FixedWindow)(nil)

// Allow records one request for key.
func (f *FixedWindow) Allow(_ context.Context, key string) (ports.Decision, error) {
	now := f.clock.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	f.sweep(now)

	w, ok := f.windows[key]
	if !ok || !now.Before(w.start.Add(f.period)) {
		w = &window{start: now}
		f.windows[key] = w
	}
	if w.count <= f.limit {
		w.count++
	}

	allowed := w.count <= f.limit
	remaining := f.limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return ports.Decision{
		Allowed:   allowed,
		Limit:     f.limit,
		Remaining: remaining,
		ResetAt:   w.start.Add(f.period),
	}, nil
}

// sweep drops expired windows at most once per period.
func (f *FixedWindow) sweep(now time.Time) {
	if now.Sub(f.lastSweep) < f.period {
		return
	}
	for k, w := range f.windows {
		if !now.Before(w.start.Add(f.period)) {
			delete(f.windows, k)
		}
	}
	f.lastSweep = now
}

// Len reports the number of live windows.
func (f *FixedWindow) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.windows)
}
