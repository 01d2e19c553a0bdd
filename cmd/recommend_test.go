package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/trajectory/internal/gap"
	"github.com/spigell/trajectory/internal/market"
	"github.com/spigell/trajectory/internal/recommend"
	"github.com/spigell/trajectory/internal/semantic"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "request.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write request: %v", err)
	}
	return path
}

func TestReadRequests(t *testing.T) {
	single, batch, err := readRequests(writeFile(t, `{"user_skills": ["sql"], "quiz_data": {"primary_motivator": "salary"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch || len(single) != 1 || single[0].UserSkills[0] != "sql" {
		t.Fatalf("unexpected single decode: %+v batch=%v", single, batch)
	}

	many, batch, err := readRequests(writeFile(t, `[{"user_skills": ["go"]}, {"user_skills": ["sql"]}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !batch || len(many) != 2 {
		t.Fatalf("unexpected batch decode: %+v batch=%v", many, batch)
	}
}

func TestReadRequestsErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{name: "not json", content: `user_skills: [sql]`},
		{name: "empty batch", content: `[]`},
		{name: "wrong type", content: `{"user_skills": "sql"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := readRequests(writeFile(t, tc.content))
			if !errors.Is(err, recommend.ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

type brokenMatcher struct {
	semantic.Matcher
}

func (brokenMatcher) Rerank(context.Context, string, []string) ([]float64, error) {
	return nil, errors.New("model unavailable")
}

func testEngine(t *testing.T, m semantic.Matcher) *recommend.Engine {
	t.Helper()
	ds := (&market.Corpus{Records: []market.JobRecord{{
		StandardTitle: "Data Analyst",
		CompanyName:   "Acme",
		AvgSalaryINR:  market.Known(600000),
		Skills:        []string{"SQL", "Python"},
		Graph:         market.SkillGraph{{Name: "Databases", Skills: []string{"SQL"}}},
		Tier:          market.TierTarget,
	}}}).Prepare()

	engine, err := recommend.New(ds, nil, m, recommend.DefaultConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestRecommendAllIsolatesFailures(t *testing.T) {
	engine := testEngine(t, semantic.NewLexical())
	requests := []recommend.Request{
		{UserSkills: []string{"sql"}},
		{UserSkills: []string{"sql"}, QuizData: map[string]any{"min_salary_inr": 10000000}},
		{UserSkills: nil},
	}

	results, failed := recommendAll(context.Background(), engine, requests, 2, zap.NewNop())
	if failed != 0 {
		t.Fatalf("request errors must not count as failures, got %d", failed)
	}

	if _, ok := results[0].(*recommend.Output); !ok {
		t.Fatalf("expected output for first request, got %T", results[0])
	}
	for i, want := range []string{"no jobs match constraints", "user_skills must not be empty"} {
		resp, ok := results[i+1].(recommend.ErrorResponse)
		if !ok || resp.Error != want {
			t.Fatalf("request %d: expected error %q, got %+v", i+1, want, results[i+1])
		}
	}
}

func TestRecommendAllCountsDependencyFailures(t *testing.T) {
	engine := testEngine(t, brokenMatcher{Matcher: semantic.NewLexical()})

	results, failed := recommendAll(context.Background(), engine, []recommend.Request{
		{UserSkills: []string{"sql"}},
		{UserSkills: []string{"python"}},
	}, 0, zap.NewNop())

	if failed != 2 {
		t.Fatalf("expected 2 failures, got %d", failed)
	}
	if _, ok := results[0].(recommend.ErrorResponse); !ok {
		t.Fatalf("expected error response, got %T", results[0])
	}
}

func TestRedactedHidesAPIKey(t *testing.T) {
	cfg := &Config{Semantic: &SemanticConfig{Gemini: &GeminiConfig{APIKey: "secret"}}}

	out := redacted(cfg)
	if out.Semantic.Gemini.APIKey != "***" {
		t.Fatalf("expected redacted key, got %q", out.Semantic.Gemini.APIKey)
	}
	if cfg.Semantic.Gemini.APIKey != "secret" {
		t.Fatalf("redaction modified the live config")
	}
}

func TestIsRequestError(t *testing.T) {
	_, _, malformed := readRequests(writeFile(t, "{not json"))

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "malformed request file", err: malformed, want: true},
		{name: "no skills", err: recommend.ErrNoSkills, want: true},
		{name: "empty pool", err: fmt.Errorf("filter: %w", recommend.ErrNoCandidates), want: true},
		{name: "gap without skills", err: gap.ErrNoSkills, want: true},
		{name: "unknown role", err: &gap.NotFoundError{Role: "Astronaut"}, want: true},
		{name: "dependency", err: errors.New("embedding service down"), want: false},
		{name: "missing file", err: os.ErrNotExist, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isRequestError(tc.err); got != tc.want {
				t.Fatalf("isRequestError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
