package recommend

import (
	"context"
	"strings"
	"sync"

	"github.com/spigell/trajectory/internal/market"
	"github.com/spigell/trajectory/internal/semantic"
)

func record(title, company string, tier market.Tier, salary float64, skills ...string) market.JobRecord {
	return market.JobRecord{
		StandardTitle: title,
		CompanyName:   company,
		Location:      "Bengaluru",
		AvgSalaryINR:  market.Known(salary),
		RoleVolume:    market.Known(100),
		TrendScore:    market.Known(1),
		Skills:        skills,
		Graph:         market.SkillGraph{{Name: "Programming Languages", Skills: skills}},
		Tier:          tier,
	}
}

func dataset(records ...market.JobRecord) *market.Dataset {
	return (&market.Corpus{Records: records}).Prepare()
}

// recordingMatcher wraps the lexical matcher and remembers every rerank call.
type recordingMatcher struct {
	mu    sync.Mutex
	inner semantic.Matcher
	score func(candidate string) float64
	calls [][]string
	err   error
}

func newRecordingMatcher() *recordingMatcher {
	return &recordingMatcher{inner: semantic.NewLexical()}
}

func (m *recordingMatcher) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.inner.Embed(ctx, text)
}

func (m *recordingMatcher) Rerank(ctx context.Context, query string, candidates []string) ([]float64, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), candidates...))
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if m.score == nil {
		return m.inner.Rerank(ctx, query, candidates)
	}

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = m.score(c)
	}
	return scores, nil
}

func (m *recordingMatcher) reranked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []string
	for _, call := range m.calls {
		all = append(all, call...)
	}
	return all
}

func containsAny(texts []string, fragment string) bool {
	for _, t := range texts {
		if strings.Contains(t, fragment) {
			return true
		}
	}
	return false
}
