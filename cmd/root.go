package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/trajectory/internal/market"
	"github.com/spigell/trajectory/internal/recommend"
	"github.com/spigell/trajectory/internal/semantic"
	"github.com/spigell/trajectory/internal/source"
)

const (
	app = "trajectory"
)

type Config struct {
	Corpus   *CorpusConfig    `mapstructure:"corpus"`
	Semantic *SemanticConfig  `mapstructure:"semantic"`
	Scoring  *ScoringConfig   `mapstructure:"scoring"`
	Engine   recommend.Config `mapstructure:"engine"`
}

type CorpusConfig struct {
	market.Sources `mapstructure:",squash"`
	S3             source.S3Config `mapstructure:"s3"`
}

type SemanticConfig struct {
	Provider        string        `mapstructure:"provider"`
	semantic.Policy `mapstructure:",squash"`
	Gemini          *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding-model"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
}

type ScoringConfig struct {
	WeightsFile string `mapstructure:"weights-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "trajectory ranks job-market roles against a user's skills and reports skill gaps",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is trajectory.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("corpus.target", "data/target_roles.csv")
	viper.SetDefault("corpus.aspirational", "data/aspirational_roles.csv")
	viper.SetDefault("corpus.career-path", "data/career_path_model.json")
	viper.SetDefault("semantic.provider", "gemini")
	viper.SetDefault("semantic.timeout", semantic.DefaultTimeout)
	viper.SetDefault("semantic.max-retries", semantic.DefaultMaxRetries)
	viper.SetDefault("semantic.backoff", semantic.DefaultBackoff)
}

func initConfig() {
	// .env is optional; it only seeds the environment (GEMINI_API_KEY).
	_ = godotenv.Load()

	viper.SetEnvPrefix(strings.ToUpper(app))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Without an explicit --config the defaults are enough to start.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	config := &Config{
		Corpus:   &CorpusConfig{},
		Semantic: &SemanticConfig{Policy: semantic.DefaultPolicy(), Gemini: &GeminiConfig{}},
		Scoring:  &ScoringConfig{},
		Engine:   recommend.DefaultConfig(),
	}
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	return config, nil
}
