package skills

import (
	"strings"
	"testing"
)

func TestDefaultWeights(t *testing.T) {
	table := DefaultWeights()

	cases := []struct {
		role     string
		category string
		want     float64
	}{
		{"Software Engineer", "Programming Languages", 1.5},
		{"software engineer", "soft skills", 0.6},
		{"AI/ML Engineer", "ML Frameworks", 1.8},
		{"ai/ml engineer", "Databases", 1.0},
		{"Business Analyst", "Soft Skills", 1.4},
		{"Unknown Role", "Soft Skills", 1.0},
		{"Unknown Role", "Unlisted Category", 1.0},
	}

	for _, tc := range cases {
		if got := table.Weight(tc.role, tc.category); got != tc.want {
			t.Fatalf("Weight(%q, %q) = %v, want %v", tc.role, tc.category, got, tc.want)
		}
	}
}

func TestRoleTableDoesNotInheritDefault(t *testing.T) {
	table, err := LoadWeights(strings.NewReader(`
default:
  Databases: 3
roles:
  Analyst:
    Soft Skills: 2
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := table.Weight("analyst", "Databases"); got != 1.0 {
		t.Fatalf("expected unlisted category of a role table to weigh 1.0, got %v", got)
	}
	if got := table.Weight("Analyst", "Soft Skills"); got != 2 {
		t.Fatalf("expected role weight 2, got %v", got)
	}
	if got := table.Weight("Other", "Databases"); got != 3 {
		t.Fatalf("expected default table for role without one, got %v", got)
	}
}

func TestLoadWeightsRejectsNegative(t *testing.T) {
	_, err := LoadWeights(strings.NewReader("default:\n  Databases: -1\n"))
	if err == nil {
		t.Fatalf("expected error for negative weight")
	}
}

func TestLoadWeightsEmptyDocument(t *testing.T) {
	table, err := LoadWeights(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := table.Weight("any", "Databases"); got != 1.0 {
		t.Fatalf("expected neutral weight, got %v", got)
	}
}

func TestNilTableIsNeutral(t *testing.T) {
	var table *WeightTable
	if got := table.Weight("x", "y"); got != 1.0 {
		t.Fatalf("expected 1.0, got %v", got)
	}
}
