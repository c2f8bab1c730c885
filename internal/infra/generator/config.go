// Package generator provides language-model adapters that write blog posts.
// It includes adapters for Claude (Anthropic) and OpenAI. Calls pass through a
// circuit breaker and are never retried.
package generator

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"

	pkgconfig "bloop/internal/pkg/config"
)

// Provider names accepted by GENERATOR_TYPE.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
)

const (
	// DefaultMaxTokens bounds the length of a generated post.
	DefaultMaxTokens = 1500

	minMaxTokens = 100
	maxMaxTokens = 8192
)

// Config holds the settings shared by all generator adapters.
type Config struct {
	// Provider selects the adapter ("claude" or "openai").
	Provider string

	// Model is the provider-specific model identifier.
	Model string

	// MaxTokens is the output-length limit sent with each request.
	MaxTokens int

	// BaseURL overrides the provider endpoint. Empty uses the SDK default.
	BaseURL string

	// Transport carries API requests. Nil uses the SDK default client.
	Transport http.RoundTripper
}

// DefaultModel returns the model used when GENERATOR_MODEL is unset.
func DefaultModel(provider string) string {
	if provider == ProviderOpenAI {
		return openai.GPT4o
	}
	return string(anthropic.ModelClaudeSonnet4_5_20250929)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Provider != ProviderClaude && c.Provider != ProviderOpenAI {
		return fmt.Errorf("unknown generator type %q", c.Provider)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if err := pkgconfig.ValidateIntRange(c.MaxTokens, minMaxTokens, maxMaxTokens); err != nil {
		return fmt.Errorf("invalid max tokens: %w", err)
	}
	return nil
}

// LoadConfig reads GENERATOR_TYPE, GENERATOR_MODEL and GENERATOR_MAX_TOKENS.
//
// GENERATOR_TYPE is fail-closed because it decides which credential is required.
// GENERATOR_MAX_TOKENS falls back to 1500 with a warning when invalid.
func LoadConfig(metrics *pkgconfig.ConfigMetrics) (Config, []string, error) {
	var warnings []string

	provider := strings.ToLower(pkgconfig.LoadEnvString("GENERATOR_TYPE", ProviderClaude))

	maxTokens := pkgconfig.LoadEnvInt("GENERATOR_MAX_TOKENS", DefaultMaxTokens, func(v int) error {
		return pkgconfig.ValidateIntRange(v, minMaxTokens, maxMaxTokens)
	})
	if metrics != nil {
		metrics.Apply("generator_max_tokens", maxTokens)
	}
	warnings = append(warnings, maxTokens.Warnings...)

	cfg := Config{
		Provider:  provider,
		Model:     pkgconfig.LoadEnvString("GENERATOR_MODEL", DefaultModel(provider)),
		MaxTokens: maxTokens.Value.(int),
	}
	if err := cfg.Validate(); err != nil {
		if metrics != nil {
			metrics.RecordValidationError("generator_type")
		}
		return Config{}, warnings, fmt.Errorf("invalid generator configuration: %w", err)
	}
	return cfg, warnings, nil
}
