// Package config loads agent settings: built-in defaults, then an optional YAML
// file, then AGT_* environment overrides.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/petasbytes/review-agent/internal/gitdiff"
	"github.com/petasbytes/review-agent/internal/provider"
)

type Config struct {
	Provider string `yaml:"provider" env:"AGT_PROVIDER, overwrite"`
	Model    string `yaml:"model" env:"AGT_MODEL, overwrite"`
	BaseURL  string `yaml:"baseURL" env:"AGT_BASE_URL, overwrite"`

	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY, overwrite"`
	GeminiAPIKey    string `yaml:"-" env:"GEMINI_API_KEY, overwrite"`
	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY, overwrite"`

	MaxSteps    int   `yaml:"maxSteps" env:"AGT_MAX_STEPS, overwrite"`
	MaxTokens   int64 `yaml:"maxTokens" env:"AGT_MAX_TOKENS, overwrite"`
	TokenBudget int   `yaml:"tokenBudget" env:"AGT_TOKEN_BUDGET, overwrite"`

	ExcludeFiles    []string `yaml:"excludeFiles" env:"AGT_EXCLUDE_FILES, overwrite"`
	ReviewFile      string   `yaml:"reviewFile" env:"AGT_REVIEW_FILE, overwrite"`
	CommitFile      string   `yaml:"commitFile" env:"AGT_COMMIT_FILE, overwrite"`
	CommitMaxLength int      `yaml:"commitMessageMaxLength" env:"AGT_COMMIT_MAX_LENGTH, overwrite"`
	ReviewMaxLength int      `yaml:"reviewMaxLength" env:"AGT_REVIEW_MAX_LENGTH, overwrite"`

	ReadRoot  string `yaml:"readRoot" env:"AGT_READ_ROOT, overwrite"`
	WriteRoot string `yaml:"writeRoot" env:"AGT_WRITE_ROOT, overwrite"`

	ObserveJSON bool   `yaml:"observeJSON" env:"AGT_OBSERVE_JSON, overwrite"`
	EventsDir   string `yaml:"eventsDir" env:"AGT_ARTIFACTS_DIR, overwrite"`
	MetricsFile string `yaml:"metricsFile" env:"AGT_METRICS_FILE, overwrite"`
	LogLevel    string `yaml:"logLevel" env:"AGT_LOG_LEVEL, overwrite"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Provider:        provider.NameGoogle,
		MaxSteps:        10,
		MaxTokens:       provider.DefaultMaxTokens,
		ExcludeFiles:    append([]string(nil), gitdiff.DefaultExclude...),
		ReviewFile:      "review.md",
		CommitFile:      "generated-commit.txt",
		CommitMaxLength: 100,
		ReviewMaxLength: 5000,
		EventsDir:       ".agent",
		LogLevel:        "info",
	}
}

// Load reads path (optional) and the process environment.
func Load(ctx context.Context, path string) (Config, error) {
	return LoadWith(ctx, path, envconfig.OsLookuper())
}

// LoadWith is Load with an explicit environment source.
func LoadWith(ctx context.Context, path string, lookuper envconfig.Lookuper) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Provider {
	case provider.NameAnthropic, provider.NameGoogle, provider.NameOpenAI:
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if err := ValidateMaxSteps(c.MaxSteps); err != nil {
		return err
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("config: maxTokens must be positive, got %d", c.MaxTokens)
	}
	if c.TokenBudget < 0 {
		return fmt.Errorf("config: tokenBudget must not be negative, got %d", c.TokenBudget)
	}
	if _, err := c.SlogLevel(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ValidateMaxSteps rejects step limits below one.
func ValidateMaxSteps(n int) error {
	if n < 1 {
		return fmt.Errorf("config: maxSteps must be at least 1, got %d", n)
	}
	return nil
}

// APIKey returns the key of the configured provider.
func (c Config) APIKey() string {
	switch c.Provider {
	case provider.NameAnthropic:
		return c.AnthropicAPIKey
	case provider.NameOpenAI:
		return c.OpenAIAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// ResolvedModel is Model, or the provider's default when unset.
func (c Config) ResolvedModel() string {
	if c.Model != "" {
		return c.Model
	}
	return provider.DefaultModel(c.Provider)
}

func (c Config) ProviderOptions() provider.Options {
	return provider.Options{Name: c.Provider, APIKey: c.APIKey(), BaseURL: c.BaseURL}
}

func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return l, nil
}
