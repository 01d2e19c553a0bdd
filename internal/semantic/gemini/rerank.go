package gemini

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/trajectory/internal/logger"
)

//go:embed prompt.md
var promptTemplate string

// Rerank asks the model to score every candidate against query in a single
// call. Temperature is pinned to zero.
func (m *Matcher) Rerank(ctx context.Context, query string, candidates []string) ([]float64, error) {
	if len(candidates) == 0 {
		return []float64{}, nil
	}

	prompt := buildPrompt(query, candidates)

	m.logger.Debug("gemini rerank request",
		zap.Int("candidates", len(candidates)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, m.maxLogLen)),
	)

	resp, err := m.models.GenerateContent(ctx, m.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"scores": {
					Type:        genai.TypeArray,
					Description: "Relevance score per candidate, in candidate order.",
					Items:       &genai.Schema{Type: genai.TypeNumber},
				},
			},
			Required: []string{"scores"},
		},
	})
	if err != nil {
		return nil, classify(fmt.Errorf("generate content: %w", err))
	}

	raw, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("gemini rerank response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, m.maxLogLen)),
	)

	return parseScores(raw, len(candidates))
}

func buildPrompt(query string, candidates []string) string {
	var list strings.Builder
	for i, c := range candidates {
		if i > 0 {
			list.WriteString("\n")
		}
		fmt.Fprintf(&list, "%d. %s", i+1, strings.TrimSpace(c))
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{QUERY}}", strings.TrimSpace(query))
	return strings.ReplaceAll(prompt, "{{CANDIDATES}}", list.String())
}

// responseText returns the answer text of the first candidate. Thought parts
// are skipped.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", errors.New("gemini api returned no candidates")
	}

	candidate := resp.Candidates[0]
	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && !part.Thought {
				text.WriteString(part.Text)
			}
		}
	}

	answer := strings.TrimSpace(text.String())
	if answer == "" {
		return "", fmt.Errorf("gemini api returned no text (finish reason %q)", candidate.FinishReason)
	}
	return answer, nil
}

// parseScores reads {"scores": [...]} or a bare array. Non-numeric entries
// score 0.
func parseScores(raw string, want int) ([]float64, error) {
	cleaned := jsonSpan(raw)
	if !gjson.Valid(cleaned) {
		return nil, fmt.Errorf("parse gemini response: invalid json %q", logger.TruncateForLog(cleaned, defaultMaxLogLength))
	}

	result := gjson.Parse(cleaned)
	if !result.IsArray() {
		result = result.Get("scores")
	}
	if !result.IsArray() {
		return nil, errors.New("parse gemini response: scores array is missing")
	}

	items := result.Array()
	if len(items) != want {
		return nil, fmt.Errorf("parse gemini response: got %d scores for %d candidates", len(items), want)
	}

	scores := make([]float64, len(items))
	for i, item := range items {
		scores[i] = coerceFloat(item)
	}
	return scores, nil
}

func coerceFloat(v gjson.Result) float64 {
	switch v.Type {
	case gjson.Number:
		return v.Float()
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// jsonSpan cuts raw down to the outermost object or array, dropping code
// fences and any prose the model wrapped around it.
func jsonSpan(raw string) string {
	first := strings.IndexAny(raw, "{[")
	last := strings.LastIndexAny(raw, "}]")
	if first == -1 || last < first {
		return strings.TrimSpace(raw)
	}
	return raw[first : last+1]
}
