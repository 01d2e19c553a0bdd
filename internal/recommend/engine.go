// Package recommend ranks the market corpus for one user in two stages: a
// cheap weighted pass over every candidate and a semantic rerank of the
// shortlist, followed by tier selection inside the winning role.
package recommend

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/trajectory/internal/logger"
	"github.com/spigell/trajectory/internal/market"
	"github.com/spigell/trajectory/internal/semantic"
	"github.com/spigell/trajectory/internal/skills"
)

// Engine serves recommendation requests against an immutable dataset. It is
// safe for concurrent use.
type Engine struct {
	dataset *market.Dataset
	scorer  *skills.Scorer
	matcher semantic.Matcher
	cfg     Config
	logger  *zap.Logger
}

func New(dataset *market.Dataset, scorer *skills.Scorer, matcher semantic.Matcher, cfg Config, log *zap.Logger) (*Engine, error) {
	if dataset == nil {
		return nil, errors.New("market dataset is required")
	}
	if matcher == nil {
		return nil, errors.New("semantic matcher is required")
	}
	if scorer == nil {
		scorer = skills.NewScorer(nil)
	}

	return &Engine{
		dataset: dataset,
		scorer:  scorer,
		matcher: matcher,
		cfg:     cfg.withDefaults(),
		logger:  logger.OrNop(log),
	}, nil
}

// candidate is the per-request view of one job. job points into a
// request-local copy of the corpus.
type candidate struct {
	job        *market.Job
	skill      float64
	experience float64
	initial    float64
	score      float64
}

// Recommend runs filter, find, refine, composite and selection for req.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Output, error) {
	log := logger.WithRequestID(e.logger, uuid.NewString())

	userSkills := req.skills()
	if len(userSkills) == 0 {
		return nil, ErrNoSkills
	}

	quiz, err := DecodeQuiz(req.QuizData)
	if err != nil {
		return nil, err
	}

	jobs, err := RunFilters(ctx, log, buildFilters(e.cfg, quiz), e.dataset.Jobs())
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, ErrNoCandidates
	}

	weights := e.cfg.WeightsFor(quiz.PrimaryMotivator)
	log.Debug("weights selected",
		zap.String("motivator", quiz.PrimaryMotivator),
		zap.Float64("demand", weights.Demand),
		zap.Float64("salary", weights.Salary),
		zap.Float64("skill", weights.Skill),
		zap.Float64("experience", weights.Experience),
	)

	shortlist := e.find(jobs, userSkills, quiz, weights)
	log.Info("find stage completed",
		zap.Int("pool", len(jobs)),
		zap.Int("shortlist", len(shortlist)),
	)

	if err := e.refine(ctx, shortlist, userSkills, req.experienceText()); err != nil {
		return nil, fmt.Errorf("refine shortlist: %w", err)
	}

	for _, c := range shortlist {
		c.score = composite(weights, c.job.NormDemand, c.job.NormSalary, c.skill, c.experience)
	}
	rank(shortlist, func(c *candidate) float64 { return c.score })

	out := e.selectTiers(shortlist, userSkills, req.userContext())
	log.Info("recommendation ready",
		zap.String("role", out.TopRecommendation.JobTitle),
		zap.Float64("skill_match_percent", out.TopRecommendation.SkillMatchPercent),
	)

	return out, nil
}

// find scores every job cheaply and returns the best ShortlistSize by biased
// score.
func (e *Engine) find(jobs []market.Job, userSkills []string, quiz Quiz, w Weights) []*candidate {
	userSet := skills.NewSet(userSkills)

	all := make([]*candidate, len(jobs))
	for i := range jobs {
		j := &jobs[i]
		skill := e.scorer.Score(j.StandardTitle, j.Graph, userSet)
		base := weighted(
			[]float64{w.Demand, w.Salary, w.Skill},
			[]float64{j.NormDemand, j.NormSalary, skill},
		)
		all[i] = &candidate{
			job:     j,
			skill:   skill,
			initial: base + e.bias(j, quiz),
		}
	}

	rank(all, func(c *candidate) float64 { return c.initial })
	if len(all) > e.cfg.ShortlistSize {
		all = all[:e.cfg.ShortlistSize]
	}
	return all
}

func (e *Engine) bias(j *market.Job, quiz Quiz) float64 {
	var bonus float64
	if quiz.CareerGoal == "top_company" && j.Tier == market.TierAspirational {
		bonus += e.cfg.TopTierBonus
	}
	if (quiz.CareerGoal == "startup" || quiz.WorkEnvironment == "startup") && j.NormTrend > e.cfg.StartupTrendThreshold {
		bonus += e.cfg.StartupBonus
	}
	return bonus
}

// composite blends the four features with the request weights, normalized by
// their sum.
func composite(w Weights, demand, salary, skill, experience float64) float64 {
	return weighted(
		[]float64{w.Demand, w.Salary, w.Skill, w.Experience},
		[]float64{demand, salary, skill, experience},
	)
}

func weighted(weights, features []float64) float64 {
	var sum, total float64
	for i, w := range weights {
		sum += w * features[i]
		total += w
	}
	if total <= 0 {
		return 0
	}
	return sum / total
}

// rank sorts by score descending; ties go to the earlier corpus row.
func rank(cs []*candidate, score func(*candidate) float64) {
	slices.SortStableFunc(cs, func(a, b *candidate) int {
		if c := cmp.Compare(score(b), score(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.job.Index, b.job.Index)
	})
}
