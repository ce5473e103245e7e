package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

func TestParseGeoPoint(t *testing.T) {
	tests := []struct {
		lat, lon string
		ok       bool
	}{
		{"36.85", "-75.97", true},
		{"90", "180", true},
		{"-90", "-180", true},
		{"90.01", "0", false},
		{"0", "180.5", false},
		{"", "10", false},
		{"abc", "10", false},
		{"NaN", "10", false},
		{"10", "Inf", false},
	}
	for _, tt := range tests {
		t.Run(tt.lat+","+tt.lon, func(t *testing.T) {
			_, err := ParseGeoPoint(tt.lat, tt.lon)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !IsKind(err, KindInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestParseObservation(t *testing.T) {
	now := time.Date(2025, 6, 1, 18, 0, 42, 0, time.UTC)

	req, err := ParseObservation("36.85", "-75.97", "", "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !req.Instant.Equal(now) {
		t.Errorf("expected now, got %v", req.Instant)
	}

	layouts := map[string]time.Time{
		"2025-06-01T18:00:30Z":      time.Date(2025, 6, 1, 18, 0, 30, 0, time.UTC),
		"2025-06-01T18:00:30.250Z":  time.Date(2025, 6, 1, 18, 0, 30, 250e6, time.UTC),
		"2025-06-01T14:00:30-04:00": time.Date(2025, 6, 1, 18, 0, 30, 0, time.UTC),
		"2025-06-01T18:00":          time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC),
		"2025-06-01":                time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	for iso, want := range layouts {
		req, err := ParseObservation("0", "0", iso, "", now)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", iso, err)
			continue
		}
		if !req.Instant.Equal(want) || req.Instant.Location() != time.UTC {
			t.Errorf("%s: expected %v, got %v", iso, want, req.Instant)
		}
	}

	if _, err := ParseObservation("0", "0", "yesterday", "", now); !IsKind(err, KindInvalidArgument) {
		t.Errorf("expected invalid iso to be rejected, got %v", err)
	}
	if _, err := ParseObservation("0", "0", "", "Mars/Olympus", now); !IsKind(err, KindInvalidArgument) {
		t.Errorf("expected unknown timezone to be rejected, got %v", err)
	}
}

func TestCacheKey_MinuteQuantized(t *testing.T) {
	p := GeoPoint{Lat: 36.85, Lon: -75.97}
	a := ObservationRequest{Point: p, Instant: time.Date(2025, 6, 1, 18, 0, 1, 0, time.UTC)}
	b := ObservationRequest{Point: p, Instant: time.Date(2025, 6, 1, 18, 0, 59, 999, time.UTC)}
	c := ObservationRequest{Point: p, Instant: time.Date(2025, 6, 1, 18, 1, 0, 0, time.UTC)}

	if a.CacheKey() != b.CacheKey() {
		t.Errorf("same minute should share a key: %s vs %s", a.CacheKey(), b.CacheKey())
	}
	if a.CacheKey() == c.CacheKey() {
		t.Error("different minutes should not share a key")
	}
	if want := "celestial:36.85:-75.97:2025-06-01T18:00:00Z"; a.CacheKey() != want {
		t.Errorf("expected %s, got %s", want, a.CacheKey())
	}

	moved := ObservationRequest{Point: GeoPoint{Lat: 36.850001, Lon: -75.97}, Instant: a.Instant}
	if moved.CacheKey() == a.CacheKey() {
		t.Error("different points should not share a key")
	}
}

func TestCompassDirection(t *testing.T) {
	tests := map[float64]string{
		0: "N", 11: "N", 12: "NNE", 45: "NE", 90: "E", 180: "S",
		270: "W", 348: "NNW", 359: "N", 360: "N", -90: "W",
	}
	for az, want := range tests {
		if got := CompassDirection(az); got != want {
			t.Errorf("CompassDirection(%v) = %s, want %s", az, got, want)
		}
	}
	if got := CompassDirection(math.NaN()); got != "" {
		t.Errorf("expected empty direction for NaN, got %q", got)
	}
}

func TestMoon(t *testing.T) {
	if got := MoonIllumination(0); math.Abs(got) > 1e-9 {
		t.Errorf("new moon illumination = %v", got)
	}
	if got := MoonIllumination(180); math.Abs(got-1) > 1e-9 {
		t.Errorf("full moon illumination = %v", got)
	}
	if got := MoonIllumination(90); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("quarter illumination = %v", got)
	}

	names := map[float64]string{
		0: "New Moon", 45: "Waxing Crescent", 90: "First Quarter", 135: "Waxing Gibbous",
		180: "Full Moon", 225: "Waning Gibbous", 270: "Last Quarter", 315: "Waning Crescent", 355: "New Moon",
	}
	for deg, want := range names {
		if got := MoonPhaseName(deg); got != want {
			t.Errorf("MoonPhaseName(%v) = %s, want %s", deg, got, want)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	base := errors.New("connection refused")

	up := Upstream("geocoder unavailable", 503, base)
	wrapped := fmt.Errorf("search: %w", up)
	if KindOf(wrapped) != KindUpstreamFailure {
		t.Errorf("expected upstream failure, got %s", KindOf(wrapped))
	}
	if StatusOf(wrapped) != 503 {
		t.Errorf("expected status 503, got %d", StatusOf(wrapped))
	}
	if !errors.Is(wrapped, base) {
		t.Error("expected cause to be reachable")
	}

	timeout := Upstream("geocoder slow", 0, context.DeadlineExceeded)
	if KindOf(timeout) != KindUpstreamTimeout {
		t.Errorf("expected timeout, got %s", KindOf(timeout))
	}
	if KindOf(context.DeadlineExceeded) != KindUpstreamTimeout {
		t.Error("bare deadline should classify as timeout")
	}
	if KindOf(base) != KindComputation {
		t.Error("unclassified errors should be computation failures")
	}
	if KindComputation.String() != "computation_failure" {
		t.Errorf("unexpected code %s", KindComputation.String())
	}
}

func TestDegradedPlace(t *testing.T) {
	p := DegradedPlace(GeoPoint{Lat: 36.85, Lon: -75.97})
	if !p.Degraded {
		t.Error("expected degraded flag")
	}
	if p.DisplayName != "Location (36.8500, -75.9700)" {
		t.Errorf("unexpected display name %q", p.DisplayName)
	}
	if m := p.Minimal(); m.Lat != 36.85 || m.Lon != -75.97 {
		t.Errorf("unexpected minimal projection %+v", m)
	}
}

func TestSeeingFromCloudCover(t *testing.T) {
	pct := func(v float64) *float64 { return &v }
	tests := []struct {
		in   *float64
		want string
	}{
		{nil, "unknown"}, {pct(5), "excellent"}, {pct(30), "good"}, {pct(50), "fair"}, {pct(90), "poor"},
	}
	for _, tt := range tests {
		if got := SeeingFromCloudCover(tt.in); got != tt.want {
			t.Errorf("SeeingFromCloudCover(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if ConditionFromWMO(0) != ConditionClear || ConditionFromWMO(95) != ConditionStorm || ConditionFromWMO(1000) != ConditionUnknown {
		t.Error("unexpected WMO condition mapping")
	}
}
