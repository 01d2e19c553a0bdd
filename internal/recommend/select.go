package recommend

import (
	"github.com/spigell/trajectory/internal/market"
	"github.com/spigell/trajectory/internal/skills"
)

// selectTiers builds the output from a shortlist already ranked by composite
// score. The role group is restricted to the shortlist.
func (e *Engine) selectTiers(ranked []*candidate, userSkills []string, userContext map[string]any) *Output {
	top := ranked[0]
	role := top.job.StandardTitle

	var aspirational, target []*candidate
	for _, c := range ranked {
		if c.job.StandardTitle != role {
			continue
		}
		switch c.job.Tier {
		case market.TierAspirational:
			aspirational = append(aspirational, c)
		case market.TierTarget:
			target = append(target, c)
		}
	}

	tiers := Tiers{
		Aspirational: pick(nth(aspirational, 1)),
		Target:       pick(nth(target, 1)),
		Discovery:    pick(nth(target, e.cfg.DiscoveryRank)),
	}

	targetSkills := top.job.Skills
	if len(targetSkills) == 0 {
		targetSkills = top.job.Graph.Flatten()
	}

	return &Output{
		TopRecommendation: TopRecommendation{
			JobTitle:               role,
			CompanyName:            top.job.CompanyName,
			Location:               top.job.Location,
			AvgSalaryINR:           salary(top.job),
			SkillMatchPercent:      percent(top.skill),
			MarketDemandPercent:    percent(top.job.NormDemand),
			Tier:                   top.job.Tier,
			ProbabilisticNextSteps: e.dataset.NextSteps(role),
		},
		Tiers: tiers,
		RoadmapInputs: RoadmapInputs{
			TargetJobTitle: role,
			SkillGap:       skills.MissingSkills(userSkills, targetSkills, e.cfg.SkillGapLimit),
			UserContext:    userContext,
		},
	}
}

// nth returns the rank-th candidate (1-based) or nil.
func nth(cs []*candidate, rank int) *candidate {
	if rank < 1 || len(cs) < rank {
		return nil
	}
	return cs[rank-1]
}
