// Package semantic describes the embedding and reranking capability the
// engine depends on, together with the score policy applied to its output.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Embedder turns a text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Reranker scores every candidate text against a query. Scores are not
// required to be bounded.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []string) ([]float64, error)
}

// Matcher is the full semantic capability.
type Matcher interface {
	Embedder
	Reranker
}

// ErrTransient marks failures that may succeed when retried.
var ErrTransient = errors.New("transient semantic failure")

type transientError struct {
	err error
}

func (e *transientError) Error() string        { return e.err.Error() }
func (e *transientError) Unwrap() error        { return e.err }
func (e *transientError) Is(target error) bool { return target == ErrTransient }

// MarkTransient classifies err as retryable. A nil error stays nil.
func MarkTransient(err error) error {
	if err == nil || IsTransient(err) {
		return err
	}
	return &transientError{err: err}
}

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Squash maps raw model output into [0,1] by clipping. NaN maps to 0.
func Squash(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Similarity is the cosine similarity of two vectors, in [-1,1]. Vectors of
// different length or zero norm yield 0.
func Similarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim))
}

// RerankSquashed calls r and clips each score into [0,1]. A response whose
// length differs from the candidate count is rejected.
func RerankSquashed(ctx context.Context, r Reranker, query string, candidates []string) ([]float64, error) {
	if len(candidates) == 0 {
		return []float64{}, nil
	}

	raw, err := r.Rerank(ctx, query, candidates)
	if err != nil {
		return nil, err
	}
	if len(raw) != len(candidates) {
		return nil, fmt.Errorf("reranker returned %d scores for %d candidates", len(raw), len(candidates))
	}

	scores := make([]float64, len(raw))
	for i, v := range raw {
		scores[i] = Squash(v)
	}
	return scores, nil
}
