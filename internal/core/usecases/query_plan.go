package usecases

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
)

// SearchMode is the branch of the search pipeline a query takes.
type SearchMode string

const (
	ModeCoordinates SearchMode = "coordinates"
	ModePostal      SearchMode = "postal"
	ModeText        SearchMode = "text"
)

// Suggest debounce hints returned to typing clients.
const (
	StructuredDebounce = 150 * time.Millisecond
	TextDebounce       = 300 * time.Millisecond
)

var coordinatePattern = regexp.MustCompile(`^\s*([-+]?\d{1,2}(?:\.\d+)?)\s*[,\s]\s*([-+]?\d{1,3}(?:\.\d+)?)\s*$`)

// postalPatterns are checked in order. Several countries share a format, so
// one query may match more than one.
var postalPatterns = []struct {
	country string
	re      *regexp.Regexp
}{
	{"us", regexp.MustCompile(`^\d{5}(?:-\d{4})?$`)},
	{"ca", regexp.MustCompile(`(?i)^[abceghj-nprstvxy]\d[abceghj-nprstv-z] ?\d[abceghj-nprstv-z]\d$`)},
	{"gb", regexp.MustCompile(`(?i)^[a-z]{1,2}\d[a-z\d]? ?\d[a-z]{2}$`)},
	{"de", regexp.MustCompile(`^\d{5}$`)},
	{"fr", regexp.MustCompile(`^\d{5}$`)},
	{"nl", regexp.MustCompile(`(?i)^\d{4} ?[a-z]{2}$`)},
	{"jp", regexp.MustCompile(`^\d{3}-\d{4}$`)},
	{"in", regexp.MustCompile(`^\d{6}$`)},
	{"au", regexp.MustCompile(`^\d{4}$`)},
	{"br", regexp.MustCompile(`^\d{5}-\d{3}$`)},
}

// QueryPlan is the ordered list of attempts for one search input. Later
// attempts only run when every earlier one came back empty.
type QueryPlan struct {
	Mode     SearchMode
	Debounce time.Duration
	Point    *domain.GeoPoint
	Attempts []ports.SearchQuery
}

// PlanQuery classifies raw input and builds its attempts. countries is the
// configured allow-list and may be empty.
func PlanQuery(raw string, limit int, citiesOnly bool, countries []string) QueryPlan {
	q := strings.Join(strings.Fields(raw), " ")

	if p, ok := parseCoordinates(q); ok {
		return QueryPlan{Mode: ModeCoordinates, Debounce: StructuredDebounce, Point: &p}
	}

	if matched := postalCountries(q, countries); len(matched) > 0 {
		postal := ports.SearchQuery{PostalCode: strings.ToUpper(q), Countries: countries, Limit: limit}
		if len(countries) == 0 && len(matched) == 1 {
			postal.Countries = matched
		}
		return QueryPlan{
			Mode:     ModePostal,
			Debounce: StructuredDebounce,
			Attempts: []ports.SearchQuery{
				postal,
				{Text: q, Countries: countries, Limit: limit},
			},
		}
	}

	plan := QueryPlan{Mode: ModeText, Debounce: TextDebounce}
	first := firstWord(q)
	if citiesOnly {
		plan.Attempts = []ports.SearchQuery{
			{Text: q, FeatureType: "city", Countries: countries, Limit: limit},
			{Text: q, FeatureType: "settlement", Countries: countries, Limit: limit},
		}
		if first != q {
			plan.Attempts = append(plan.Attempts, ports.SearchQuery{Text: first, FeatureType: "settlement", Countries: countries, Limit: limit})
		}
		return plan
	}
	plan.Attempts = []ports.SearchQuery{{Text: q, Countries: countries, Limit: limit}}
	if first != q {
		plan.Attempts = append(plan.Attempts, ports.SearchQuery{Text: first, Countries: countries, Limit: limit})
	}
	return plan
}

func parseCoordinates(q string) (domain.GeoPoint, bool) {
	m := coordinatePattern.FindStringSubmatch(q)
	if m == nil {
		return domain.GeoPoint{}, false
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lon, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return domain.GeoPoint{}, false
	}
	p, err := domain.NewGeoPoint(lat, lon)
	if err != nil {
		return domain.GeoPoint{}, false
	}
	return p, true
}

// postalCountries returns the countries whose postal format matches q,
// restricted to the allow-list when one is configured.
func postalCountries(q string, allow []string) []string {
	var out []string
	for _, pp := range postalPatterns {
		if len(allow) > 0 && !containsFold(allow, pp.country) {
			continue
		}
		if pp.re.MatchString(q) {
			out = append(out, pp.country)
		}
	}
	return out
}

func firstWord(q string) string {
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return q
	}
	return strings.TrimRight(fields[0], ",;")
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
