package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/galiprandi/dimensions/internal/ai"
	"github.com/galiprandi/dimensions/internal/ai/gemini"
	"github.com/galiprandi/dimensions/internal/ai/session"
	"github.com/galiprandi/dimensions/internal/backoffice"
	"github.com/galiprandi/dimensions/internal/secrets"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	app = "dimensions"

	defaultLanguage = "es"
)

type Config struct {
	APIURL          string    `mapstructure:"api-url"`
	ProfileProxyURL string    `mapstructure:"profile-proxy-url"`
	TokenFile       string    `mapstructure:"token-file"`
	UserAgent       string    `mapstructure:"user-agent"`
	AI              *AIConfig `mapstructure:"ai"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Language string        `mapstructure:"language"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "dimensions is a cli for reviewing interview evaluations and drafting conclusions with AI",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("token-file", "DIMENSIONS_TOKEN_FILE"); err != nil {
		log.Fatalf("binding DIMENSIONS_TOKEN_FILE environment variable: %v", err)
	}

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is dimensions.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every setting has a flag or environment fallback, so a missing
	// config file is fine. A malformed one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}

func resolveTokenFile(config *Config) string {
	tokenFile := strings.TrimSpace(config.TokenFile)
	if tokenFile == "" {
		tokenFile = strings.TrimSpace(viper.GetString("token-file"))
	}

	return tokenFile
}

func resolveToken(config *Config) (string, error) {
	tokenFile := resolveTokenFile(config)
	if tokenFile == "" {
		return "", errors.New("backoffice token file is not configured")
	}

	return secrets.Load(secrets.Source{
		Name: "backoffice session token",
		File: tokenFile,
	})
}

func newBackofficeClient(config *Config, logger *zap.Logger) (*backoffice.Client, error) {
	token, err := resolveToken(config)
	if err != nil {
		return nil, err
	}

	client := backoffice.New(logger, token)

	if config.APIURL != "" {
		client.APIURL = config.APIURL
	}
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}

	return client, nil
}

// newSessionManager builds the model session manager for the configured
// provider. Only gemini is supported for now.
func newSessionManager(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (*session.Manager, error) {
	if cfg == nil {
		cfg = &AIConfig{}
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	gcfg := cfg.Gemini
	if gcfg == nil {
		gcfg = &GeminiConfig{}
	}

	apiKeyFile := strings.TrimSpace(gcfg.APIKeyFile)
	if apiKeyFile == "" {
		apiKeyFile = strings.TrimSpace(viper.GetString("ai.gemini.api-key-file"))
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: apiKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	providerLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", gcfg.Model),
	)

	gen, err := gemini.New(ctx, apiKey, gcfg.Model, providerLogger)
	if err != nil {
		return nil, err
	}

	if gcfg.MaxLogLength > 0 {
		gen.MaxLogLength = gcfg.MaxLogLength
	}

	logger.Debug("gemini provider ready", zap.String("model", gen.Model()))

	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = defaultLanguage
	}

	opts := ai.SessionOptions{Languages: []string{language}}

	return session.NewManager(gen, opts, logger), nil
}
