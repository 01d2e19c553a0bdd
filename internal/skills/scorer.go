// Package skills scores how well a flat user skill set covers a job's
// categorized skill graph.
package skills

import (
	"github.com/spigell/trajectory/internal/market"
)

// DefaultMissingLimit caps the missing-skill list shown to users.
const DefaultMissingLimit = 5

// Set is a lower-cased, trimmed set of skill names.
type Set map[string]struct{}

func NewSet(skills []string) Set {
	set := make(Set, len(skills))
	for _, s := range skills {
		if s = normalize(s); s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

func (s Set) Has(skill string) bool {
	_, ok := s[normalize(skill)]
	return ok
}

// Scorer computes the category-weighted overlap score.
type Scorer struct {
	weights *WeightTable
}

func NewScorer(weights *WeightTable) *Scorer {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights}
}

// Score returns matched weight over catalogued weight, in [0,1]. Matching is
// exact on trimmed, lower-cased names. A graph without skills scores 0.
func (s *Scorer) Score(role string, graph market.SkillGraph, user Set) float64 {
	var matched, possible float64

	for _, category := range graph {
		jobSkills := NewSet(category.Skills)
		if len(jobSkills) == 0 {
			continue
		}

		weight := s.weights.Weight(role, category.Name)
		hits := 0
		for skill := range jobSkills {
			if _, ok := user[skill]; ok {
				hits++
			}
		}

		matched += float64(hits) * weight
		possible += float64(len(jobSkills)) * weight
	}

	if possible == 0 {
		return 0
	}
	return matched / possible
}

// MissingSkills returns lower-cased target skills absent from user, in target
// order without duplicates, truncated to limit (no cap when limit <= 0).
func MissingSkills(user, target []string, limit int) []string {
	have := NewSet(user)
	seen := make(map[string]struct{}, len(target))
	missing := make([]string, 0)

	for _, skill := range target {
		skill = normalize(skill)
		if skill == "" {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}

		if _, ok := have[skill]; ok {
			continue
		}
		missing = append(missing, skill)
		if limit > 0 && len(missing) == limit {
			break
		}
	}
	return missing
}
