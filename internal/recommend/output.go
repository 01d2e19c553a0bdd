package recommend

import (
	"math"

	"github.com/spigell/trajectory/internal/market"
)

// Output is the recommendation returned for one request.
type Output struct {
	TopRecommendation TopRecommendation `json:"top_recommendation"`
	Tiers             Tiers             `json:"tiers"`
	RoadmapInputs     RoadmapInputs     `json:"roadmap_inputs"`
}

type TopRecommendation struct {
	JobTitle               string             `json:"job_title"`
	CompanyName            string             `json:"company_name"`
	Location               string             `json:"location"`
	AvgSalaryINR           int64              `json:"avg_salary_inr"`
	SkillMatchPercent      float64            `json:"skill_match_percent"`
	MarketDemandPercent    float64            `json:"market_demand_percent"`
	Tier                   market.Tier        `json:"tier"`
	ProbabilisticNextSteps map[string]float64 `json:"probabilistic_next_steps"`
}

// Tiers holds the picks inside the recommended role. Absent picks encode as null.
type Tiers struct {
	Aspirational *TierPick `json:"aspirational"`
	Target       *TierPick `json:"target"`
	Discovery    *TierPick `json:"discovery"`
}

type TierPick struct {
	JobTitle               string      `json:"job_title"`
	CompanyName            string      `json:"company_name"`
	Location               string      `json:"location"`
	AvgSalaryINR           int64       `json:"avg_salary_inr"`
	Tier                   market.Tier `json:"tier"`
	SkillMatchPercent      float64     `json:"skill_match_percent"`
	ExperienceMatchPercent float64     `json:"experience_match_percent"`
	TrajectoryScore        float64     `json:"trajectory_score"`
}

type RoadmapInputs struct {
	TargetJobTitle string         `json:"target_job_title"`
	SkillGap       []string       `json:"skill_gap"`
	UserContext    map[string]any `json:"user_context"`
}

// ErrorResponse is the shape of every user-visible failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{Error: err.Error()}
}

func pick(c *candidate) *TierPick {
	if c == nil {
		return nil
	}
	return &TierPick{
		JobTitle:               c.job.StandardTitle,
		CompanyName:            c.job.CompanyName,
		Location:               c.job.Location,
		AvgSalaryINR:           salary(c.job),
		Tier:                   c.job.Tier,
		SkillMatchPercent:      percent(c.skill),
		ExperienceMatchPercent: percent(c.experience),
		TrajectoryScore:        round2(c.score),
	}
}

func salary(j *market.Job) int64 {
	if !j.AvgSalaryINR.Valid {
		return 0
	}
	return int64(math.Round(j.AvgSalaryINR.Value))
}

func percent(v float64) float64 {
	return round2(v * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
