package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/trajectory/internal/gap"
	"github.com/spigell/trajectory/internal/logger"
	"github.com/spigell/trajectory/internal/market"
	"github.com/spigell/trajectory/internal/recommend"
	"github.com/spigell/trajectory/internal/secrets"
	"github.com/spigell/trajectory/internal/semantic"
	"github.com/spigell/trajectory/internal/semantic/gemini"
	"github.com/spigell/trajectory/internal/skills"
	"github.com/spigell/trajectory/internal/source"
)

const (
	providerGemini  = "gemini"
	providerLexical = "lexical"
)

// env holds everything loaded once per process and shared by all requests.
type env struct {
	logger  *zap.Logger
	config  *Config
	opener  *source.Opener
	dataset *market.Dataset
}

func newEnv(ctx context.Context) *env {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	l.Info("starting the trajectory", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	l.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	opener := source.New(config.Corpus.S3)

	corpus, err := market.Load(ctx, opener, config.Corpus.Sources, l)
	if err != nil {
		l.Fatal("loading market corpus", zap.Error(err),
			zap.String("hint", "set corpus.target in the configuration file or TRAJECTORY_CORPUS_TARGET"),
		)
	}

	dataset := corpus.Prepare()
	l.Info("market corpus prepared", zap.Int("rows", dataset.Len()), zap.Bool("has_company", dataset.HasCompany()))

	return &env{logger: l, config: config, opener: opener, dataset: dataset}
}

func redacted(c *Config) Config {
	out := *c
	if c.Semantic != nil && c.Semantic.Gemini != nil {
		s := *c.Semantic
		g := *c.Semantic.Gemini
		if g.APIKey != "" {
			g.APIKey = "***"
		}
		s.Gemini = &g
		out.Semantic = &s
	}
	return out
}

func (e *env) weights(ctx context.Context) (*skills.WeightTable, error) {
	path := strings.TrimSpace(e.config.Scoring.WeightsFile)
	if path == "" {
		return skills.DefaultWeights(), nil
	}

	rc, err := e.opener.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open category weights: %w", err)
	}
	defer rc.Close()

	return skills.LoadWeights(rc)
}

// matcher builds the configured semantic provider wrapped in the retry policy.
func (e *env) matcher(ctx context.Context) (semantic.Matcher, error) {
	cfg := e.config.Semantic
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	var (
		m     semantic.Matcher
		model string
	)

	switch provider {
	case providerLexical:
		m = semantic.NewLexical()
	case providerGemini, "":
		provider = providerGemini
		g := cfg.Gemini
		if g == nil {
			g = &GeminiConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  g.APIKeyFile,
			Value: g.APIKey,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, err
		}

		client, err := gemini.New(ctx, apiKey, gemini.Options{
			Model:          g.Model,
			EmbeddingModel: g.EmbeddingModel,
			MaxLogLength:   g.MaxLogLength,
		}, logger.WithProvider(e.logger, providerGemini, g.Model))
		if err != nil {
			return nil, err
		}
		m = client
		model = client.Model()
	default:
		return nil, fmt.Errorf("unknown semantic provider %q", cfg.Provider)
	}

	l := logger.WithProvider(e.logger, provider, model)
	l.Info("semantic provider ready",
		zap.Duration("timeout", cfg.Timeout),
		zap.Int("max_retries", cfg.MaxRetries),
	)

	return semantic.Guard(m, cfg.Policy, l), nil
}

func (e *env) engine(ctx context.Context, m semantic.Matcher) (*recommend.Engine, error) {
	weights, err := e.weights(ctx)
	if err != nil {
		return nil, err
	}
	return recommend.New(e.dataset, skills.NewScorer(weights), m, e.config.Engine, e.logger)
}

// printJSON writes v to stdout. Logs go to stderr.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// isRequestError reports whether err is the caller's fault. Such errors are
// printed as an error object and the command still exits 0.
func isRequestError(err error) bool {
	var notFound *gap.NotFoundError
	return recommend.IsRequestError(err) || errors.Is(err, gap.ErrNoSkills) || errors.As(err, &notFound)
}

// rejectRequest prints err for the caller and logs it at info level.
func (e *env) rejectRequest(msg string, err error) {
	e.logger.Info(msg, zap.Error(err))
	if err := printJSON(recommend.NewErrorResponse(err)); err != nil {
		e.logger.Fatal("writing output", zap.Error(err))
	}
}
