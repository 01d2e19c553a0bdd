// Package gap answers "how far am I from role X at company Y".
package gap

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/trajectory/internal/logger"
	"github.com/spigell/trajectory/internal/market"
	"github.com/spigell/trajectory/internal/semantic"
	"github.com/spigell/trajectory/internal/skills"
)

// ErrNoSkills rejects a request without any non-blank skill.
var ErrNoSkills = errors.New("user_skills must not be empty")

// NotFoundError names the role, and the company when one was requested.
type NotFoundError struct {
	Role    string
	Company string
}

func (e *NotFoundError) Error() string {
	if e.Company != "" {
		return fmt.Sprintf("Role '%s' at '%s' not found in our database.", e.Role, e.Company)
	}
	return fmt.Sprintf("Role '%s' not found in our database.", e.Role)
}

// Request is the gap-analysis request body. A null company means role only.
type Request struct {
	UserSkills   []string `json:"user_skills"`
	DreamRole    string   `json:"dream_role"`
	DreamCompany *string  `json:"dream_company"`
}

func (r Request) Company() string {
	if r.DreamCompany == nil {
		return ""
	}
	return *r.DreamCompany
}

type Result struct {
	DreamRole         string   `json:"dream_role"`
	MatchScorePercent float64  `json:"match_score_percent"`
	SkillsToDevelop   []string `json:"skills_to_develop"`
}

type Analyzer struct {
	dataset  *market.Dataset
	embedder semantic.Embedder
	limit    int
	logger   *zap.Logger
}

// New returns an Analyzer. A non-positive limit uses skills.DefaultMissingLimit.
func New(dataset *market.Dataset, embedder semantic.Embedder, limit int, log *zap.Logger) *Analyzer {
	if limit <= 0 {
		limit = skills.DefaultMissingLimit
	}
	return &Analyzer{
		dataset:  dataset,
		embedder: embedder,
		limit:    limit,
		logger:   logger.OrNop(log),
	}
}

// Analyze compares userSkills with the first corpus row for role, narrowed to
// company when the corpus has company names. A company without a match falls
// back to the role alone.
func (a *Analyzer) Analyze(ctx context.Context, userSkills []string, role, company string) (*Result, error) {
	userSkills = nonBlank(userSkills)
	if len(userSkills) == 0 {
		return nil, ErrNoSkills
	}

	role = strings.TrimSpace(role)
	company = strings.TrimSpace(company)

	job, ok := a.lookup(role, company)
	if !ok {
		return nil, &NotFoundError{Role: role, Company: company}
	}

	targetSkills := job.Skills
	if len(targetSkills) == 0 {
		targetSkills = job.Graph.Flatten()
	}

	score, err := a.similarity(ctx, strings.Join(userSkills, " "), strings.Join(targetSkills, " "))
	if err != nil {
		return nil, err
	}

	label := role
	if company != "" {
		label = fmt.Sprintf("%s at %s", role, company)
	}

	a.logger.Info("gap analysis completed",
		zap.String("role", role),
		zap.String("company", company),
		zap.String("matched_company", job.CompanyName),
		zap.Float64("score", score),
	)

	return &Result{
		DreamRole:         label,
		MatchScorePercent: math.Round(score*10000) / 100,
		SkillsToDevelop:   skills.MissingSkills(userSkills, targetSkills, a.limit),
	}, nil
}

func (a *Analyzer) lookup(role, company string) (market.Job, bool) {
	jobs := a.dataset.Jobs()

	if company != "" && a.dataset.HasCompany() {
		for _, j := range jobs {
			if strings.EqualFold(j.StandardTitle, role) && strings.EqualFold(j.CompanyName, company) {
				return j, true
			}
		}
		a.logger.Debug("no row for role at company, falling back to role only",
			zap.String("role", role),
			zap.String("company", company),
		)
	}

	for _, j := range jobs {
		if strings.EqualFold(j.StandardTitle, role) {
			return j, true
		}
	}
	return market.Job{}, false
}

// similarity embeds both texts and returns their cosine similarity clipped to
// [0,1]. An empty side scores 0 without calling the embedder.
func (a *Analyzer) similarity(ctx context.Context, user, target string) (float64, error) {
	if strings.TrimSpace(user) == "" || strings.TrimSpace(target) == "" {
		return 0, nil
	}

	u, err := a.embedder.Embed(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("embed user skills: %w", err)
	}
	t, err := a.embedder.Embed(ctx, target)
	if err != nil {
		return 0, fmt.Errorf("embed target skills: %w", err)
	}

	return semantic.Squash(semantic.Similarity(u, t)), nil
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
