package sql

import (
	"testing"

	"github.com/panelize-ai/panelize-engine/pkg/models"
)

func TestCheckFilterValue_CleanValues(t *testing.T) {
	tests := []struct {
		name  string
		value models.FilterValue
	}{
		{name: "plain scalar", value: models.NewScalar("EMEA")},
		{name: "numeric scalar", value: models.NewScalar("12345")},
		{name: "date range", value: models.NewRange("2024-01-01", "2024-06-30")},
		{name: "list", value: models.NewList("pending", "shipped")},
		{name: "empty", value: models.FilterValue{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := CheckFilterValue("f", tt.value); result != nil {
				t.Errorf("clean value flagged: %+v", result)
			}
		})
	}
}

func TestCheckFilterValue_InjectionAttempts(t *testing.T) {
	tests := []struct {
		name  string
		value models.FilterValue
	}{
		{name: "classic stacked drop", value: models.NewScalar("'; DROP TABLE users--")},
		{name: "tautology", value: models.NewScalar("' OR '1'='1")},
		{name: "injection in list element", value: models.NewList("ok", "' OR '1'='1")},
		{name: "injection in range end", value: models.NewRange("2024-01-01", "' OR 1=1--")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckFilterValue("f", tt.value)
			if result == nil {
				t.Fatal("injection not detected")
			}
			if !result.IsSQLi || result.FilterKey != "f" || result.Fingerprint == "" {
				t.Errorf("unexpected result: %+v", result)
			}
		})
	}
}

func TestCheckFilterValues_OnlyNamedKeys(t *testing.T) {
	values := models.FilterValues{
		"safe":   models.NewScalar("EMEA"),
		"nasty":  models.NewScalar("'; DROP TABLE users--"),
		"unused": models.NewScalar("' OR '1'='1"),
	}

	results := CheckFilterValues(values, []string{"safe", "nasty", "missing"})
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].FilterKey != "nasty" {
		t.Errorf("flagged wrong key: %s", results[0].FilterKey)
	}
}
