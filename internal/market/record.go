// Package market loads the job-market corpus and precomputes the
// user-independent features every recommendation request combines.
package market

import "strings"

// Tier classifies where a row came from. It is assigned at load time only.
type Tier string

const (
	TierTarget       Tier = "target"
	TierAspirational Tier = "aspirational"
)

// Number is a numeric corpus cell that may be missing.
type Number struct {
	Value float64
	Valid bool
}

func Known(v float64) Number {
	return Number{Value: v, Valid: true}
}

// Category is one named group of a job's skill graph.
type Category struct {
	Name   string
	Skills []string
}

// SkillGraph keeps categories in source order so folds over it are deterministic.
type SkillGraph []Category

// Flatten returns every skill of the graph in category order.
func (g SkillGraph) Flatten() []string {
	out := make([]string, 0)
	for _, c := range g {
		out = append(out, c.Skills...)
	}
	return out
}

// JobRecord is one row of the market corpus.
type JobRecord struct {
	StandardTitle string
	CompanyName   string
	Location      string
	AvgSalaryINR  Number
	RoleVolume    Number
	TrendScore    Number
	Skills        []string
	Graph         SkillGraph
	Tier          Tier
}

// SkillText returns the job's skills joined for semantic comparison, falling
// back to the skill graph when the flat list is empty.
func (r JobRecord) SkillText() string {
	skills := r.Skills
	if len(skills) == 0 {
		skills = r.Graph.Flatten()
	}
	return strings.Join(skills, " ")
}

// Job is a prepared corpus row carrying the startup-normalized features.
type Job struct {
	JobRecord

	// Index is the row position in the loaded corpus and the final tie-breaker in rankings.
	Index      int
	NormSalary float64
	NormVolume float64
	NormTrend  float64
	NormDemand float64
}
