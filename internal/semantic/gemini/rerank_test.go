package gemini

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/trajectory/internal/semantic"
)

func TestRerank(t *testing.T) {
	fake := &fakeModels{generateResp: textResponse("```json\n{\"scores\": [0.9, 0.1, 1.4]}\n```")}
	m := newMatcher(fake, Options{Model: "rerank-test"}, zap.NewNop())

	scores, err := m.Rerank(context.Background(), "sql python", []string{"sql excel", "docker", "python sql"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{0.9, 0.1, 1.4}
	for i := range want {
		if scores[i] != want[i] {
			t.Fatalf("score %d: expected %v, got %v", i, want[i], scores[i])
		}
	}

	if fake.models[0] != "rerank-test" {
		t.Fatalf("unexpected model: %q", fake.models[0])
	}
	prompt := fake.prompts[0]
	for _, fragment := range []string{"sql python", "1. sql excel", "2. docker", "3. python sql"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt is missing %q:\n%s", fragment, prompt)
		}
	}

	cfg := fake.configs[0]
	if cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json response type, got %q", cfg.ResponseMIMEType)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0 {
		t.Fatalf("expected zero temperature")
	}
}

func TestRerankEmptyCandidatesSkipsCall(t *testing.T) {
	fake := &fakeModels{}
	m := newMatcher(fake, Options{}, nil)

	scores, err := m.Rerank(context.Background(), "q", nil)
	if err != nil || len(scores) != 0 {
		t.Fatalf("expected empty result, got %v %v", scores, err)
	}
	if len(fake.prompts) != 0 {
		t.Fatalf("expected no model call")
	}
}

func TestRerankErrors(t *testing.T) {
	cases := []struct {
		name      string
		resp      *genai.GenerateContentResponse
		err       error
		transient bool
	}{
		{name: "empty response", resp: &genai.GenerateContentResponse{}},
		{name: "not json", resp: textResponse("I think candidate one")},
		{name: "wrong count", resp: textResponse(`{"scores": [0.5]}`)},
		{name: "missing scores", resp: textResponse(`{"relevance": [0.5, 0.2]}`)},
		{name: "server error", err: genai.APIError{Code: http.StatusBadGateway}, transient: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeModels{generateResp: tc.resp, generateErr: tc.err}
			m := newMatcher(fake, Options{}, nil)

			_, err := m.Rerank(context.Background(), "q", []string{"a", "b"})
			if err == nil {
				t.Fatalf("expected error")
			}
			if semantic.IsTransient(err) != tc.transient {
				t.Fatalf("expected transient=%v, got %v", tc.transient, err)
			}
		})
	}
}

func TestParseScores(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []float64
	}{
		{name: "object", raw: `{"scores": [0.2, 0.8]}`, want: []float64{0.2, 0.8}},
		{name: "bare array", raw: `[1, 0]`, want: []float64{1, 0}},
		{name: "string numbers", raw: `{"scores": ["0.4", "x"]}`, want: []float64{0.4, 0}},
		{name: "fenced", raw: "```\n[0.3, null]\n```", want: []float64{0.3, 0}},
		{name: "wrapped in prose", raw: "Here you go: {\"scores\": [0.1, 0.9]} Hope it helps.", want: []float64{0.1, 0.9}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseScores(tc.raw, len(tc.want))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("score %d: expected %v, got %v", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestResponseTextSkipsThoughts(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{
			{Text: "ranking the candidates", Thought: true},
			{Text: `{"scores": `},
			{Text: `[0.5]}`},
		}},
	}}}

	got, err := responseText(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"scores": [0.5]}` {
		t.Fatalf("unexpected text: %q", got)
	}

	blocked := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}}
	if _, err := responseText(blocked); err == nil || !strings.Contains(err.Error(), "SAFETY") {
		t.Fatalf("expected finish reason in error, got %v", err)
	}
}
