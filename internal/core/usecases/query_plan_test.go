package usecases_test

import (
	"testing"

	"github.com/samirrijal/skywatch/internal/core/usecases"
)

func TestPlanQuery_Modes(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		cities   bool
		mode     usecases.SearchMode
		attempts int
	}{
		{"coordinates", "37.42, -122.08", false, usecases.ModeCoordinates, 0},
		{"coordinates space separated", "-33.9 151.2", false, usecases.ModeCoordinates, 0},
		{"out of range falls to text", "95 200", false, usecases.ModeText, 2},
		{"us zip", "94043", false, usecases.ModePostal, 2},
		{"uk postcode", "SW1A 1AA", false, usecases.ModePostal, 2},
		{"canada", "k1a 0b1", false, usecases.ModePostal, 2},
		{"japan", "100-0001", false, usecases.ModePostal, 2},
		{"single word", "Paris", false, usecases.ModeText, 1},
		{"multi word", "Mountain View CA", false, usecases.ModeText, 2},
		{"cities only", "Mountain View CA", true, usecases.ModeText, 3},
		{"cities only single word", "Bilbao", true, usecases.ModeText, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := usecases.PlanQuery(tt.query, 5, tt.cities, nil)
			if plan.Mode != tt.mode {
				t.Fatalf("expected mode %s, got %s", tt.mode, plan.Mode)
			}
			if len(plan.Attempts) != tt.attempts {
				t.Fatalf("expected %d attempts, got %d", tt.attempts, len(plan.Attempts))
			}
		})
	}
}

func TestPlanQuery_PostalDebounceAndCountry(t *testing.T) {
	plan := usecases.PlanQuery("SW1A 1AA", 5, false, nil)
	if plan.Debounce != usecases.StructuredDebounce {
		t.Errorf("expected structured debounce, got %v", plan.Debounce)
	}
	first := plan.Attempts[0]
	if first.PostalCode != "SW1A 1AA" {
		t.Errorf("expected postal code attempt, got %+v", first)
	}
	if len(first.Countries) != 1 || first.Countries[0] != "gb" {
		t.Errorf("expected unambiguous format to pin gb, got %v", first.Countries)
	}

	// Five digits match several countries, so no country is pinned.
	plan = usecases.PlanQuery("94043", 5, false, nil)
	if len(plan.Attempts[0].Countries) != 0 {
		t.Errorf("expected no country restriction, got %v", plan.Attempts[0].Countries)
	}
}

func TestPlanQuery_AllowListRestrictsPostalFormats(t *testing.T) {
	// 4 digits is an Australian postcode but AU is not allowed.
	plan := usecases.PlanQuery("2000", 5, false, []string{"de"})
	if plan.Mode != usecases.ModeText {
		t.Fatalf("expected text mode, got %s", plan.Mode)
	}
	if plan.Debounce != usecases.TextDebounce {
		t.Errorf("expected text debounce, got %v", plan.Debounce)
	}
	if got := plan.Attempts[0].Countries; len(got) != 1 || got[0] != "de" {
		t.Errorf("expected allow-list passed through, got %v", got)
	}
}

func TestPlanQuery_CitiesOnlyWidening(t *testing.T) {
	plan := usecases.PlanQuery("Mountain View CA", 5, true, nil)
	want := []struct{ text, feature string }{
		{"Mountain View CA", "city"},
		{"Mountain View CA", "settlement"},
		{"Mountain", "settlement"},
	}
	for i, w := range want {
		a := plan.Attempts[i]
		if a.Text != w.text || a.FeatureType != w.feature {
			t.Errorf("attempt %d: expected %q/%q, got %q/%q", i, w.text, w.feature, a.Text, a.FeatureType)
		}
	}
}
