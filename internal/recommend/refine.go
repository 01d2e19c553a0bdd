package recommend

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/spigell/trajectory/internal/semantic"
)

// refine reranks the shortlist against the user's skills and, when given,
// experience text. Both passes run concurrently; scores are clipped to [0,1].
// Without experience text every experience score stays 0.
func (e *Engine) refine(ctx context.Context, shortlist []*candidate, userSkills []string, experience string) error {
	if len(shortlist) == 0 {
		return nil
	}

	skillTexts := make([]string, len(shortlist))
	roleTexts := make([]string, len(shortlist))
	for i, c := range shortlist {
		skillTexts[i] = c.job.SkillText()
		roleTexts[i] = strings.TrimSpace(c.job.StandardTitle + ": " + skillTexts[i])
	}

	var skillScores, experienceScores []float64
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		scores, err := semantic.RerankSquashed(gctx, e.matcher, strings.Join(userSkills, " "), skillTexts)
		skillScores = scores
		return err
	})

	if experience != "" {
		g.Go(func() error {
			scores, err := semantic.RerankSquashed(gctx, e.matcher, experience, roleTexts)
			experienceScores = scores
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for i, c := range shortlist {
		c.skill = skillScores[i]
		if experienceScores != nil {
			c.experience = experienceScores[i]
		}
	}
	return nil
}
