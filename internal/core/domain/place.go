package domain

import "fmt"

// FeatureType is the normalized kind of a geocoding result.
type FeatureType string

const (
	FeatureCity     FeatureType = "city"
	FeatureTown     FeatureType = "town"
	FeatureVillage  FeatureType = "village"
	FeatureAdmin    FeatureType = "administrative"
	FeaturePostcode FeatureType = "postcode"
	FeatureAddress  FeatureType = "address"
	FeaturePOI      FeatureType = "poi"
	FeatureRegion   FeatureType = "region"
	FeatureCountry  FeatureType = "country"
	FeatureOther    FeatureType = "other"
)

// CityLike is the allow-list applied when a search asks for cities only.
var CityLike = map[FeatureType]bool{
	FeatureCity:    true,
	FeatureTown:    true,
	FeatureVillage: true,
	FeatureAdmin:   true,
}

// Place is the single shape every geocoding provider is mapped to.
type Place struct {
	DisplayName string      `json:"displayName"`
	Point       GeoPoint    `json:"point"`
	FeatureType FeatureType `json:"featureType"`
	City        string      `json:"city,omitempty"`
	State       string      `json:"state,omitempty"`
	Country     string      `json:"country,omitempty"`
	CountryCode string      `json:"countryCode,omitempty"`
	Postcode    string      `json:"postcode,omitempty"`
	Provider    string      `json:"provider,omitempty"`
	Degraded    bool        `json:"degraded,omitempty"`
}

// MinimalPlace is the projection returned when a caller asks for minimal
// results.
type MinimalPlace struct {
	DisplayName string  `json:"displayName"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Minimal projects p to its minimal form.
func (p Place) Minimal() MinimalPlace {
	return MinimalPlace{DisplayName: p.DisplayName, Lat: p.Point.Lat, Lon: p.Point.Lon}
}

// DegradedPlace stands in for a reverse-geocoding result that could not be
// obtained. It is flagged so callers can tell it apart from a real match.
func DegradedPlace(p GeoPoint) Place {
	return Place{
		DisplayName: fmt.Sprintf("Location (%.4f, %.4f)", p.Lat, p.Lon),
		Point:       p,
		FeatureType: FeatureOther,
		Degraded:    true,
	}
}
