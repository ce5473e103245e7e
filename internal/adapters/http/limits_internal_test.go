package http

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/graphql-go/graphql/language/parser"
	"github.com/jonboulle/clockwork"

	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/pkg/ratelimit"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ports.Decision, error) {
	return ports.Decision{}, errors.New("store down")
}

func TestSubscribeAllowed_ChargesCelestialQuota(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := ratelimit.NewFixedWindow(2, time.Minute, ratelimit.WithClock(clock))
	ctx := context.Background()

	// the upgrade request already took one unit
	if _, err := limiter.Allow(ctx, "celestial:10.0.0.1"); err != nil {
		t.Fatal(err)
	}
	if !subscribeAllowed(ctx, limiter, "10.0.0.1", slog.Default()) {
		t.Fatal("first subscribe should be admitted")
	}
	if subscribeAllowed(ctx, limiter, "10.0.0.1", slog.Default()) {
		t.Fatal("second subscribe should exceed the quota")
	}
	if !subscribeAllowed(ctx, limiter, "10.0.0.2", slog.Default()) {
		t.Fatal("other clients keep their own quota")
	}

	clock.Advance(61 * time.Second)
	if !subscribeAllowed(ctx, limiter, "10.0.0.1", slog.Default()) {
		t.Fatal("quota should reset after the window")
	}
}

func TestSubscribeAllowed_FailsOpen(t *testing.T) {
	if !subscribeAllowed(context.Background(), failingLimiter{}, "10.0.0.1", slog.Default()) {
		t.Fatal("limiter errors must admit")
	}
	if !subscribeAllowed(context.Background(), nil, "10.0.0.1", slog.Default()) {
		t.Fatal("nil limiter must admit")
	}
}

func TestTopLevelFields(t *testing.T) {
	cases := []struct {
		name  string
		query string
		op    string
		want  int
	}{
		{"single", `{ celestial(lat: 0, lon: 0) { source } }`, "", 1},
		{"aliases", `{ a: weather(lat: 0, lon: 0) { provider } b: weather(lat: 1, lon: 1) { provider } }`, "", 2},
		{"nested not counted", `{ celestial(lat: 0, lon: 0) { bodies { name track { time } } } }`, "", 1},
		{"inline fragment", `{ ... on Query { a: searchLocations(q: "x") { city } b: searchLocations(q: "y") { city } } }`, "", 2},
		{"fragment spread", `{ ...f ...f } fragment f on Query { a: searchLocations(q: "x") { city } }`, "", 1},
		{"named operation", `query A { a: weather(lat: 0, lon: 0) { provider } } query B { b: weather(lat: 0, lon: 0) { provider } c: weather(lat: 0, lon: 0) { provider } }`, "B", 2},
		{"all operations", `query A { a: weather(lat: 0, lon: 0) { provider } } query B { b: weather(lat: 0, lon: 0) { provider } }`, "", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := parser.Parse(parser.ParseParams{Source: tc.query})
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := topLevelFields(doc, tc.op); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
