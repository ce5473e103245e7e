package ephemeris

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/pkg/flight"
	"github.com/samirrijal/skywatch/internal/pkg/upstream"
)

// calculation is the computation backend's /calculate payload.
type calculation struct {
	Objects []calcObject `json:"objects"`
	Sunrise *string      `json:"sunrise"`
	Sunset  *string      `json:"sunset"`
}

type calcObject struct {
	Name           string       `json:"name"`
	Type           string       `json:"type"`
	Altitude       *float64     `json:"altitude"`
	Azimuth        *float64     `json:"azimuth"`
	HourlyData     []calcSample `json:"hourlyData"`
	AdditionalInfo struct {
		RiseTime        *string `json:"riseTime"`
		SetTime         *string `json:"setTime"`
		BestViewingTime *string `json:"bestViewingTime"`
	} `json:"additionalInfo"`
}

type calcSample struct {
	Time     string   `json:"time"`
	Altitude *float64 `json:"altitude"`
	Azimuth  *float64 `json:"azimuth"`
}

// Remote queries an out-of-process computation backend. Bodies and values
// the backend does not report are answered by the fallback ephemeris; a
// failed backend call is never papered over.
type Remote struct {
	client   *upstream.Client
	baseURL  string
	fallback ports.Ephemeris

	group flight.Group[*calculation]
	memo  *ttlcache.Cache[string, *calculation]
}

// NewRemote creates a backend client. fallback may be nil, in which case
// unreported values are errors.
func NewRemote(client *upstream.Client, baseURL string, fallback ports.Ephemeris) *Remote {
	return &Remote{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		fallback: fallback,
		memo: ttlcache.New[string, *calculation](
			ttlcache.WithTTL[string, *calculation](time.Minute),
			ttlcache.WithCapacity[string, *calculation](256),
		),
	}
}

var _ ports.Ephemeris = (*Remote)(nil)

// calculate fetches the backend's view of (obs, at), sharing one call among
// concurrent callers for the same minute. The shared call outlives the
// caller that started it.
func (r *Remote) calculate(ctx context.Context, at time.Time, obs domain.GeoPoint) (*calculation, error) {
	minute := at.UTC().Truncate(time.Minute)
	key := obs.KeyPart() + ":" + minute.Format(time.RFC3339)
	if item := r.memo.Get(key); item != nil {
		return item.Value(), nil
	}

	return r.group.Do(ctx, key, func(ctx context.Context) (*calculation, error) {
		params := url.Values{}
		params.Set("lat", strconv.FormatFloat(obs.Lat, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(obs.Lon, 'f', -1, 64))
		params.Set("time", minute.Format(time.RFC3339))

		var calc calculation
		if err := r.client.GetJSON(ctx, r.baseURL+"/calculate?"+params.Encode(), nil, &calc); err != nil {
			return nil, fmt.Errorf("compute backend: %w", err)
		}
		r.memo.Set(key, &calc, ttlcache.DefaultTTL)
		return &calc, nil
	})
}

func (c *calculation) object(body domain.Body) (calcObject, bool) {
	for _, o := range c.Objects {
		if strings.EqualFold(o.Name, string(body)) {
			return o, true
		}
	}
	return calcObject{}, false
}

// Position prefers the object's own alt/az, then the hourly sample nearest
// to at.
func (r *Remote) Position(ctx context.Context, body domain.Body, at time.Time, obs domain.GeoPoint) (domain.HorizontalPosition, error) {
	calc, err := r.calculate(ctx, at, obs)
	if err != nil {
		return domain.HorizontalPosition{}, err
	}
	if o, ok := calc.object(body); ok {
		if o.Altitude != nil && o.Azimuth != nil {
			return domain.HorizontalPosition{Altitude: *o.Altitude, Azimuth: *o.Azimuth}, nil
		}
		if s, ok := nearestSample(o.HourlyData, at); ok {
			return domain.HorizontalPosition{Altitude: *s.Altitude, Azimuth: *s.Azimuth}, nil
		}
	}
	if r.fallback != nil {
		return r.fallback.Position(ctx, body, at, obs)
	}
	return domain.HorizontalPosition{}, domain.Upstream(fmt.Sprintf("compute backend did not report %s", body), 502, nil)
}

// RiseSet reads the object's rise/set, or the top-level sunrise/sunset for
// the Sun.
func (r *Remote) RiseSet(ctx context.Context, body domain.Body, at time.Time, obs domain.GeoPoint) (domain.RiseSet, error) {
	calc, err := r.calculate(ctx, at, obs)
	if err != nil {
		return domain.RiseSet{}, err
	}
	if body == domain.Sun && (calc.Sunrise != nil || calc.Sunset != nil) {
		return domain.RiseSet{Rise: parseTime(calc.Sunrise), Set: parseTime(calc.Sunset)}, nil
	}
	if o, ok := calc.object(body); ok {
		return domain.RiseSet{
			Rise: parseTime(o.AdditionalInfo.RiseTime),
			Set:  parseTime(o.AdditionalInfo.SetTime),
		}, nil
	}
	if r.fallback != nil {
		return r.fallback.RiseSet(ctx, body, at, obs)
	}
	return domain.RiseSet{}, domain.Upstream(fmt.Sprintf("compute backend did not report %s", body), 502, nil)
}

// Phase has no backend endpoint; the fallback computes it.
func (r *Remote) Phase(ctx context.Context, at time.Time) (float64, error) {
	if r.fallback != nil {
		return r.fallback.Phase(ctx, at)
	}
	return 0, domain.Upstream("compute backend does not report the lunar phase", 502, nil)
}

func nearestSample(samples []calcSample, at time.Time) (calcSample, bool) {
	var (
		best  calcSample
		bestD time.Duration = -1
	)
	for _, s := range samples {
		if s.Altitude == nil || s.Azimuth == nil {
			continue
		}
		t, err := time.Parse(time.RFC3339, s.Time)
		if err != nil {
			continue
		}
		d := t.Sub(at)
		if d < 0 {
			d = -d
		}
		if bestD < 0 || d < bestD {
			best, bestD = s, d
		}
	}
	// samples further than an hour away do not describe "now"
	return best, bestD >= 0 && bestD <= time.Hour
}

func parseTime(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
