package geocoding

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/pkg/upstream"
)

const DefaultMapboxURL = "https://api.mapbox.com"

type mapboxCollection struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	PlaceName string          `json:"place_name"`
	Text      string          `json:"text"`
	Center    []float64       `json:"center"`
	PlaceType []string        `json:"place_type"`
	Context   []mapboxContext `json:"context"`
}

type mapboxContext struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	ShortCode string `json:"short_code"`
}

// mapboxKinds maps Mapbox place types to normalized feature types.
var mapboxKinds = map[string]domain.FeatureType{
	"place":        domain.FeatureCity,
	"locality":     domain.FeatureTown,
	"neighborhood": domain.FeatureVillage,
	"district":     domain.FeatureAdmin,
	"postcode":     domain.FeaturePostcode,
	"address":      domain.FeatureAddress,
	"poi":          domain.FeaturePOI,
	"region":       domain.FeatureRegion,
	"country":      domain.FeatureCountry,
}

// mapboxTypes translates a requested feature type into a types filter.
var mapboxTypes = map[string]string{
	"city":       "place",
	"settlement": "place,locality,neighborhood,district",
	"state":      "region",
	"country":    "country",
}

// Mapbox is a Mapbox Geocoding v5 client.
type Mapbox struct {
	client  *upstream.Client
	baseURL string
	token   string
}

// NewMapbox creates a client; an empty baseURL means the public API.
func NewMapbox(client *upstream.Client, baseURL, token string) *Mapbox {
	if baseURL == "" {
		baseURL = DefaultMapboxURL
	}
	return &Mapbox{client: client, baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

var _ ports.Geocoder = (*Mapbox)(nil)

// Search runs one query. Postal codes are searched with the postcode type.
func (m *Mapbox) Search(ctx context.Context, q ports.SearchQuery) ([]domain.Place, error) {
	text := q.Text
	params := m.params()
	params.Set("limit", strconv.Itoa(min(max(q.Limit, 1), 10)))
	switch {
	case q.Structured():
		text = q.PostalCode
		params.Set("types", "postcode")
	case q.FeatureType != "":
		if types, ok := mapboxTypes[q.FeatureType]; ok {
			params.Set("types", types)
		}
	}
	if len(q.Countries) > 0 {
		params.Set("country", strings.Join(q.Countries, ","))
	}

	coll, err := m.fetch(ctx, text, params)
	if err != nil {
		return nil, fmt.Errorf("mapbox search: %w", err)
	}
	places := make([]domain.Place, 0, len(coll.Features))
	for _, f := range coll.Features {
		if p, err := mapboxToPlace(f); err == nil {
			places = append(places, p)
		}
	}
	return places, nil
}

// Reverse resolves a coordinate to the most specific place.
func (m *Mapbox) Reverse(ctx context.Context, p domain.GeoPoint) (domain.Place, error) {
	params := m.params()
	params.Set("limit", "1")
	params.Set("types", "address,place,locality,neighborhood,postcode,region,country")
	query := strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)

	coll, err := m.fetch(ctx, query, params)
	if err != nil {
		return domain.Place{}, fmt.Errorf("mapbox reverse: %w", err)
	}
	if len(coll.Features) == 0 {
		return domain.Place{}, domain.UpstreamNotFound("no place found at " + p.String())
	}
	return mapboxToPlace(coll.Features[0])
}

func (m *Mapbox) params() url.Values {
	v := url.Values{}
	v.Set("access_token", m.token)
	return v
}

func (m *Mapbox) fetch(ctx context.Context, query string, params url.Values) (*mapboxCollection, error) {
	u := m.baseURL + "/geocoding/v5/mapbox.places/" + url.PathEscape(query) + ".json?" + params.Encode()
	var coll mapboxCollection
	if err := m.client.GetJSON(ctx, u, nil, &coll); err != nil {
		return nil, err
	}
	return &coll, nil
}

func mapboxToPlace(f mapboxFeature) (domain.Place, error) {
	if len(f.Center) != 2 {
		return domain.Place{}, fmt.Errorf("mapbox feature %q has no center", f.PlaceName)
	}
	point, err := domain.NewGeoPoint(f.Center[1], f.Center[0])
	if err != nil {
		return domain.Place{}, err
	}

	p := domain.Place{
		DisplayName: f.PlaceName,
		Point:       point,
		FeatureType: domain.FeatureOther,
		Provider:    "mapbox",
	}
	if len(f.PlaceType) > 0 {
		if ft, ok := mapboxKinds[f.PlaceType[0]]; ok {
			p.FeatureType = ft
		}
	}
	switch p.FeatureType {
	case domain.FeatureCity, domain.FeatureTown, domain.FeatureVillage:
		p.City = f.Text
	case domain.FeaturePostcode:
		p.Postcode = f.Text
	}

	for _, c := range f.Context {
		kind, _, _ := strings.Cut(c.ID, ".")
		switch kind {
		case "place":
			if p.City == "" {
				p.City = c.Text
			}
		case "postcode":
			if p.Postcode == "" {
				p.Postcode = c.Text
			}
		case "region":
			p.State = c.Text
		case "country":
			p.Country = c.Text
			p.CountryCode = strings.ToLower(c.ShortCode)
		}
	}
	return p, nil
}
