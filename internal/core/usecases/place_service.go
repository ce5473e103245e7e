package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/pkg/geospatial"
)

const (
	DefaultSearchLimit = 5
	MaxSearchLimit     = 20
	// duplicateRadius merges same-named results this close together (meters).
	duplicateRadius = 1000.0
)

// SearchOptions tune a forward search.
type SearchOptions struct {
	Limit      int
	CitiesOnly bool
}

// SearchResult is the outcome of a forward search plus the hints a typing
// client uses.
type SearchResult struct {
	Places []domain.Place
	Plan   QueryPlan
	Cached bool
}

// PlaceService resolves free text and coordinates to places.
type PlaceService struct {
	geocoder  ports.Geocoder
	cache     *CacheManager
	countries []string
}

// NewPlaceService creates a PlaceService restricted to countries (ISO
// alpha-2, empty for no restriction).
func NewPlaceService(geocoder ports.Geocoder, cache *CacheManager, countries []string) *PlaceService {
	return &PlaceService{geocoder: geocoder, cache: cache, countries: countries}
}

// Search runs the query plan for q. An empty outcome after every fallback
// is a NotFound error; the plan is returned alongside it.
func (s *PlaceService) Search(ctx context.Context, q string, opts SearchOptions) (SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return SearchResult{}, domain.Invalid("missing query parameter q")
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	if opts.Limit > MaxSearchLimit {
		opts.Limit = MaxSearchLimit
	}

	plan := PlanQuery(q, opts.Limit, opts.CitiesOnly, s.countries)
	if plan.Mode == ModeCoordinates {
		return SearchResult{Places: []domain.Place{s.ReverseOrDegraded(ctx, *plan.Point)}, Plan: plan}, nil
	}

	key := fmt.Sprintf("geo:search:%s:%s:%t:%d:%s",
		plan.Mode, strings.Join(s.countries, ","), opts.CitiesOnly, opts.Limit, strings.ToLower(q))
	places, hit, err := ReadThrough(ctx, s.cache, "geocode", key, GeocodeTTL,
		func(ctx context.Context) ([]domain.Place, error) {
			return s.run(ctx, plan, opts)
		})
	if err != nil {
		return SearchResult{Plan: plan}, err
	}
	return SearchResult{Places: places, Plan: plan, Cached: hit}, nil
}

// run tries each attempt until one yields results.
func (s *PlaceService) run(ctx context.Context, plan QueryPlan, opts SearchOptions) ([]domain.Place, error) {
	for i, attempt := range plan.Attempts {
		raw, err := s.geocoder.Search(ctx, attempt)
		if err != nil {
			return nil, err
		}
		places := s.filter(raw, opts)
		if len(places) > 0 {
			if i > 0 {
				slog.DebugContext(ctx, "search widened", "attempt", i, "mode", plan.Mode)
			}
			if len(places) > opts.Limit {
				places = places[:opts.Limit]
			}
			return places, nil
		}
	}
	return nil, domain.NotFound("no places matched")
}

func (s *PlaceService) filter(raw []domain.Place, opts SearchOptions) []domain.Place {
	out := make([]domain.Place, 0, len(raw))
	for _, p := range raw {
		if opts.CitiesOnly && !domain.CityLike[p.FeatureType] {
			continue
		}
		if len(s.countries) > 0 && p.CountryCode != "" && !containsFold(s.countries, p.CountryCode) {
			continue
		}
		if isDuplicate(out, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// isDuplicate reports whether a place with the same leading name already
// sits within duplicateRadius of p.
func isDuplicate(seen []domain.Place, p domain.Place) bool {
	name := leadingName(p)
	for _, q := range seen {
		if leadingName(q) == name && geospatial.Within(p.Point, q.Point, duplicateRadius) {
			return true
		}
	}
	return false
}

func leadingName(p domain.Place) string {
	name, _, _ := strings.Cut(p.DisplayName, ",")
	return strings.ToLower(strings.TrimSpace(name))
}

// Reverse resolves p. No match is UpstreamNotFound.
func (s *PlaceService) Reverse(ctx context.Context, p domain.GeoPoint) (domain.Place, error) {
	if err := p.Validate(); err != nil {
		return domain.Place{}, err
	}
	place, _, err := ReadThrough(ctx, s.cache, "geocode", "geo:reverse:"+p.KeyPart(), GeocodeTTL,
		func(ctx context.Context) (domain.Place, error) {
			return s.geocoder.Reverse(ctx, p)
		})
	return place, err
}

// ReverseOrDegraded never fails: any reverse-geocoding failure yields the
// flagged placeholder for p.
func (s *PlaceService) ReverseOrDegraded(ctx context.Context, p domain.GeoPoint) domain.Place {
	place, err := s.Reverse(ctx, p)
	if err != nil {
		slog.InfoContext(ctx, "reverse geocoding degraded", "point", p.String(), "error", err)
		return domain.DegradedPlace(p)
	}
	return place
}
