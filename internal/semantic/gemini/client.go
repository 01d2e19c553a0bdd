// Package gemini backs the semantic capability with the Gemini API:
// embeddings for similarity and a JSON-scored prompt for reranking.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/trajectory/internal/semantic"
)

const (
	DefaultModel          = "gemini-2.5-flash"
	DefaultEmbeddingModel = "gemini-embedding-001"
	defaultMaxLogLength   = 200

	// maxQuotaWait is the longest server-requested delay still worth retrying.
	maxQuotaWait = 30 * time.Second
)

// models is the subset of genai.Models used here.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type Options struct {
	Model          string
	EmbeddingModel string
	MaxLogLength   int
}

// Matcher implements semantic.Matcher on top of Gemini.
type Matcher struct {
	models         models
	model          string
	embeddingModel string
	logger         *zap.Logger
	maxLogLen      int
}

// New creates a Matcher configured for the Gemini API backend.
func New(ctx context.Context, apiKey string, opts Options, logger *zap.Logger) (*Matcher, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newMatcher(client.Models, opts, logger), nil
}

func newMatcher(m models, opts Options, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	embeddingModel := strings.TrimSpace(opts.EmbeddingModel)
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Matcher{
		models:         m,
		model:          model,
		embeddingModel: embeddingModel,
		logger:         logger,
		maxLogLen:      maxLogLen,
	}
}

func (m *Matcher) Model() string {
	if m == nil {
		return ""
	}
	return m.model
}

// Embed returns the embedding vector of text.
func (m *Matcher) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("text to embed must not be empty")
	}

	resp, err := m.models.EmbedContent(ctx, m.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{
		TaskType: "SEMANTIC_SIMILARITY",
	})
	if err != nil {
		return nil, classify(fmt.Errorf("embed content: %w", err))
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini api returned empty embedding")
	}

	return resp.Embeddings[0].Values, nil
}

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?)\s*s`)

// classify marks rate limiting and server errors as transient, except quota
// errors asking to wait longer than maxQuotaWait.
func classify(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var apiErrPtr *genai.APIError
		if !errors.As(err, &apiErrPtr) || apiErrPtr == nil {
			return err
		}
		apiErr = *apiErrPtr
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		if delay, ok := retryAfter(apiErr.Message); ok && delay > maxQuotaWait {
			return err
		}
		return semantic.MarkTransient(err)
	case apiErr.Code >= http.StatusInternalServerError:
		return semantic.MarkTransient(err)
	default:
		return err
	}
}

func retryAfter(message string) (time.Duration, bool) {
	match := retryAfterPattern.FindStringSubmatch(message)
	if len(match) != 2 {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}
