// Package geocoding holds the forward/reverse geocoding clients. Each
// provider maps its raw payloads onto domain.Place through an explicit
// per-shape table; nothing outside this package sees provider fields.
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

// NominatimShape selects the Nominatim output format, which changes field
// names in the payload.
type NominatimShape string

const (
	ShapeJSON   NominatimShape = "json"
	ShapeJSONv2 NominatimShape = "jsonv2"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// nominatimRaw is the union of the json and jsonv2 result fields.
type nominatimRaw struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Class       string            `json:"class"`
	Category    string            `json:"category"`
	Type        string            `json:"type"`
	AddressType string            `json:"addresstype"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// nominatimMapping names, per shape, which raw fields carry the category and
// the most specific place type.
type nominatimMapping struct {
	category func(r nominatimRaw) string
	kind     func(r nominatimRaw) string
}

var nominatimShapes = map[NominatimShape]nominatimMapping{
	ShapeJSON: {
		category: func(r nominatimRaw) string { return r.Class },
		kind:     func(r nominatimRaw) string { return r.Type },
	},
	ShapeJSONv2: {
		category: func(r nominatimRaw) string { return r.Category },
		kind: func(r nominatimRaw) string {
			if r.AddressType != "" {
				return r.AddressType
			}
			return r.Type
		},
	},
}

// Address keys in precedence order for each normalized field.
var (
	cityKeys  = []string{"city", "town", "village", "hamlet", "municipality"}
	stateKeys = []string{"state", "province", "region", "county"}
)

// Nominatim is an OpenStreetMap Nominatim client.
type Nominatim struct {
	client  *upstream.Client
	baseURL string
	shape   NominatimShape
}

// NewNominatim creates a client; an empty baseURL means the public instance.
func NewNominatim(client *upstream.Client, baseURL string, shape NominatimShape) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if _, ok := nominatimShapes[shape]; !ok {
		shape = ShapeJSONv2
	}
	return &Nominatim{client: client, baseURL: strings.TrimRight(baseURL, "/"), shape: shape}
}

var _ ports.Geocoder = (*Nominatim)(nil)

// Search runs one free-text or structured query.
func (n *Nominatim) Search(ctx context.Context, q ports.SearchQuery) ([]domain.Place, error) {
	params := url.Values{}
	params.Set("format", string(n.shape))
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(max(q.Limit, 1)))
	if q.Structured() {
		params.Set("postalcode", q.PostalCode)
	} else {
		params.Set("q", q.Text)
	}
	if q.FeatureType != "" {
		params.Set("featureType", q.FeatureType)
	}
	if len(q.Countries) > 0 {
		params.Set("countrycodes", strings.Join(q.Countries, ","))
	}

	var raws []nominatimRaw
	if err := n.client.GetJSON(ctx, n.baseURL+"/search?"+params.Encode(), nil, &raws); err != nil {
		return nil, fmt.Errorf("nominatim search: %w", err)
	}

	places := make([]domain.Place, 0, len(raws))
	for _, r := range raws {
		p, err := n.rawToPlace(r)
		if err != nil {
			continue
		}
		places = append(places, p)
	}
	return places, nil
}

// Reverse resolves a coordinate to the nearest place.
func (n *Nominatim) Reverse(ctx context.Context, p domain.GeoPoint) (domain.Place, error) {
	params := url.Values{}
	params.Set("format", string(n.shape))
	params.Set("addressdetails", "1")
	params.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(p.Lon, 'f', -1, 64))

	var raw nominatimRaw
	if err := n.client.GetJSON(ctx, n.baseURL+"/reverse?"+params.Encode(), nil, &raw); err != nil {
		return domain.Place{}, fmt.Errorf("nominatim reverse: %w", err)
	}
	// Nominatim answers 200 with an error body when nothing is there.
	if raw.Error != "" || raw.DisplayName == "" {
		return domain.Place{}, domain.UpstreamNotFound("no place found at " + p.String())
	}
	return n.rawToPlace(raw)
}

func (n *Nominatim) rawToPlace(r nominatimRaw) (domain.Place, error) {
	m := nominatimShapes[n.shape]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return domain.Place{}, fmt.Errorf("nominatim lat %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return domain.Place{}, fmt.Errorf("nominatim lon %q: %w", r.Lon, err)
	}
	point, err := domain.NewGeoPoint(lat, lon)
	if err != nil {
		return domain.Place{}, err
	}

	return domain.Place{
		DisplayName: r.DisplayName,
		Point:       point,
		FeatureType: classifyOSM(m.category(r), m.kind(r)),
		City:        firstOf(r.Address, cityKeys),
		State:       firstOf(r.Address, stateKeys),
		Country:     r.Address["country"],
		CountryCode: strings.ToLower(r.Address["country_code"]),
		Postcode:    r.Address["postcode"],
		Provider:    "nominatim",
	}, nil
}

// osmKinds maps OSM place types to normalized feature types.
var osmKinds = map[string]domain.FeatureType{
	"city":           domain.FeatureCity,
	"town":           domain.FeatureTown,
	"village":        domain.FeatureVillage,
	"hamlet":         domain.FeatureVillage,
	"municipality":   domain.FeatureAdmin,
	"administrative": domain.FeatureAdmin,
	"county":         domain.FeatureAdmin,
	"postcode":       domain.FeaturePostcode,
	"house":          domain.FeatureAddress,
	"building":       domain.FeatureAddress,
	"road":           domain.FeatureAddress,
	"residential":    domain.FeatureAddress,
	"state":          domain.FeatureRegion,
	"region":         domain.FeatureRegion,
	"province":       domain.FeatureRegion,
	"country":        domain.FeatureCountry,
}

// osmCategories covers results whose type alone is not decisive.
var osmCategories = map[string]domain.FeatureType{
	"amenity":  domain.FeaturePOI,
	"tourism":  domain.FeaturePOI,
	"shop":     domain.FeaturePOI,
	"leisure":  domain.FeaturePOI,
	"office":   domain.FeaturePOI,
	"building": domain.FeatureAddress,
	"highway":  domain.FeatureAddress,
}

func classifyOSM(category, kind string) domain.FeatureType {
	if ft, ok := osmKinds[kind]; ok {
		return ft
	}
	if ft, ok := osmCategories[category]; ok {
		return ft
	}
	if category == "boundary" {
		return domain.FeatureAdmin
	}
	return domain.FeatureOther
}

func firstOf(m map[string]string, keys []string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
