package semantic

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const lexicalDimensions = 512

// Lexical is an offline matcher over hashed token counts. It is deterministic
// and needs no credentials, so it backs tests and air-gapped runs.
type Lexical struct{}

func NewLexical() *Lexical {
	return &Lexical{}
}

func (l *Lexical) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, lexicalDimensions)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[h.Sum32()%lexicalDimensions]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// Rerank scores each candidate by cosine similarity with the query. Counts
// are non-negative so scores fall in [0,1].
func (l *Lexical) Rerank(ctx context.Context, query string, candidates []string) ([]float64, error) {
	q, err := l.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(candidates))
	for i, candidate := range candidates {
		c, err := l.Embed(ctx, candidate)
		if err != nil {
			return nil, err
		}
		scores[i] = Similarity(q, c)
	}
	return scores, nil
}

// tokenize keeps characters common in skill names such as "c++", "c#" and
// "node.js".
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.')
	})

	tokens := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "."); f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
