package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/pkg/metrics"
)

// MaxTrackHours bounds the optional hourly track.
const MaxTrackHours = 24

// SnapshotOptions are the optional extras of a snapshot request.
type SnapshotOptions struct {
	// Hours > 0 adds an hourly track of that many hours after the instant.
	Hours int
}

// SkyService builds celestial snapshots.
type SkyService struct {
	ephemeris ports.Ephemeris
	cache     *CacheManager
	events    ports.EventPublisher
	source    string
	now       func() time.Time
}

// NewSkyService creates a SkyService. events may be nil.
func NewSkyService(eph ports.Ephemeris, cache *CacheManager, events ports.EventPublisher, source string) *SkyService {
	return &SkyService{ephemeris: eph, cache: cache, events: events, source: source, now: time.Now}
}

// Snapshot returns the sky for req, from cache when an equivalent request
// (same point, same minute) was computed recently. Local rise/set strings
// are rendered per call, so requests differing only by timezone share one
// cache entry.
func (s *SkyService) Snapshot(ctx context.Context, req domain.ObservationRequest, opts SnapshotOptions) (*domain.CelestialSnapshot, bool, error) {
	if err := req.Point.Validate(); err != nil {
		return nil, false, err
	}
	if opts.Hours < 0 || opts.Hours > MaxTrackHours {
		return nil, false, domain.Invalid(fmt.Sprintf("hours must be between 0 and %d", MaxTrackHours))
	}

	key := req.CacheKey()
	if opts.Hours > 0 {
		key += fmt.Sprintf(":track:%d", opts.Hours)
	}

	snap, hit, err := ReadThrough(ctx, s.cache, "celestial", key, CelestialTTL,
		func(ctx context.Context) (*domain.CelestialSnapshot, error) {
			snap, err := s.build(ctx, req, opts)
			if err != nil {
				return nil, err
			}
			s.publish(ctx, key, snap)
			return snap, nil
		})
	if err != nil {
		return nil, false, err
	}

	out := *snap
	out.Request.Timezone = req.Timezone
	out.Bodies = make([]domain.BodySnapshot, len(snap.Bodies))
	copy(out.Bodies, snap.Bodies)
	if req.Timezone != "" {
		localize(out.Bodies, req.Location())
	}
	return &out, hit, nil
}

func (s *SkyService) build(ctx context.Context, req domain.ObservationRequest, opts SnapshotOptions) (*domain.CelestialSnapshot, error) {
	at := req.Minute()
	bodies := make([]domain.BodySnapshot, len(domain.TrackedBodies))

	p := pool.New().WithContext(ctx).WithCancelOnError()
	for i, body := range domain.TrackedBodies {
		p.Go(func(ctx context.Context) error {
			b, err := s.body(ctx, body, at, req.Point, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", body, err)
			}
			bodies[i] = b
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		if domain.KindOf(err) == domain.KindComputation {
			return nil, domain.Computation("snapshot", err)
		}
		return nil, err
	}

	return &domain.CelestialSnapshot{
		Request: domain.SnapshotRequest{
			Lat: req.Point.Lat,
			Lon: req.Point.Lon,
			ISO: at.Format(time.RFC3339),
		},
		Bodies:      bodies,
		Source:      s.source,
		GeneratedAt: s.now().UTC(),
	}, nil
}

// body computes one entry. Only a failed position is fatal; rise/set and
// phase failures leave their fields null.
func (s *SkyService) body(ctx context.Context, body domain.Body, at time.Time, obs domain.GeoPoint, opts SnapshotOptions) (domain.BodySnapshot, error) {
	pos, err := s.ephemeris.Position(ctx, body, at, obs)
	if err != nil {
		return domain.BodySnapshot{}, err
	}

	b := domain.BodySnapshot{
		Name:        string(body),
		Type:        body.Kind(),
		AltitudeDeg: pos.Altitude,
		AzimuthDeg:  pos.Azimuth,
		Direction:   domain.CompassDirection(pos.Azimuth),
		Visible:     pos.Altitude > 0,
	}

	if rs, err := s.ephemeris.RiseSet(ctx, body, at, obs); err != nil {
		s.absorb(ctx, body, "riseset", err)
	} else {
		b.RiseISO = isoPtr(rs.Rise)
		b.SetISO = isoPtr(rs.Set)
	}

	if body == domain.Moon {
		if phase, err := s.ephemeris.Phase(ctx, at); err != nil {
			s.absorb(ctx, body, "phase", err)
		} else {
			phase = domain.NormalizeDegrees(phase)
			illum := domain.MoonIllumination(phase)
			b.PhaseDeg = &phase
			b.Illumination = &illum
			b.PhaseName = domain.MoonPhaseName(phase)
		}
	}

	if opts.Hours > 0 {
		b.Track, b.BestViewingTime = s.track(ctx, body, at, obs, opts.Hours)
	}
	return b, nil
}

// track samples the body hourly from at; the best viewing time is the
// highest sample above the horizon.
func (s *SkyService) track(ctx context.Context, body domain.Body, at time.Time, obs domain.GeoPoint, hours int) ([]domain.TrackPoint, *time.Time) {
	var (
		points  []domain.TrackPoint
		best    *time.Time
		bestAlt float64
	)
	for h := 0; h <= hours; h++ {
		t := at.Add(time.Duration(h) * time.Hour)
		pos, err := s.ephemeris.Position(ctx, body, t, obs)
		if err != nil {
			s.absorb(ctx, body, "track", err)
			continue
		}
		points = append(points, domain.TrackPoint{
			Time:     t,
			Altitude: pos.Altitude,
			Azimuth:  pos.Azimuth,
			Visible:  pos.Altitude > 0,
		})
		if pos.Altitude > 0 && (best == nil || pos.Altitude > bestAlt) {
			tt := t
			best, bestAlt = &tt, pos.Altitude
		}
	}
	return points, best
}

func (s *SkyService) absorb(ctx context.Context, body domain.Body, call string, err error) {
	metrics.SnapshotBodyFailures.WithLabelValues(string(body), call).Inc()
	slog.WarnContext(ctx, "ephemeris call failed, leaving field null", "body", body, "call", call, "error", err)
}

func (s *SkyService) publish(ctx context.Context, key string, snap *domain.CelestialSnapshot) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSnapshot(ctx, key, snap); err != nil {
		slog.WarnContext(ctx, "publish snapshot failed", "key", key, "error", err)
	}
}

func localize(bodies []domain.BodySnapshot, loc *time.Location) {
	for i := range bodies {
		bodies[i].RiseLocal = localString(bodies[i].RiseISO, loc)
		bodies[i].SetLocal = localString(bodies[i].SetISO, loc)
	}
}

func localString(iso *string, loc *time.Location) string {
	if iso == nil {
		return ""
	}
	t, err := time.Parse(time.RFC3339, *iso)
	if err != nil {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}

func isoPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
