// Package config loads the credentials for the three external collaborators.
//
// Credentials are read from the environment. When BLOOP_CONFIG_FILE names a YAML
// file, it supplies any value the environment leaves unset. Loading is fail-closed:
// a missing required credential is an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	pkgconfig "bloop/internal/pkg/config"
)

// Generator provider names accepted by GENERATOR_TYPE.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
)

// ErrMissingCredential is wrapped by every validation failure.
var ErrMissingCredential = errors.New("missing credential")

// Credentials holds every secret the bot needs.
type Credentials struct {
	Anthropic AnthropicCredentials `yaml:"anthropic"`
	OpenAI    OpenAICredentials    `yaml:"openai"`
	Ghost     GhostCredentials     `yaml:"ghost"`
	Twitter   TwitterCredentials   `yaml:"twitter"`
}

type AnthropicCredentials struct {
	APIKey string `yaml:"api_key"`
}

type OpenAICredentials struct {
	APIKey string `yaml:"api_key"`
}

// GhostCredentials address the Ghost Admin API.
// AdminAPIKey has the form "{id}:{hex secret}".
type GhostCredentials struct {
	Host        string `yaml:"host"`
	AdminAPIKey string `yaml:"admin_api_key"`
}

// TwitterCredentials authenticate against the X API v2.
type TwitterCredentials struct {
	BearerToken       string `yaml:"bearer_token"`
	APIKey            string `yaml:"api_key"`
	APISecret         string `yaml:"api_secret"`
	AccessToken       string `yaml:"access_token"`
	AccessTokenSecret string `yaml:"access_token_secret"`
}

// UseOAuth1 reports whether the full OAuth 1.0a user-context set is present.
func (t TwitterCredentials) UseOAuth1() bool {
	return t.APIKey != "" && t.APISecret != "" && t.AccessToken != "" && t.AccessTokenSecret != ""
}

// LoadCredentials reads credentials from the environment, filling gaps from the
// YAML file named by BLOOP_CONFIG_FILE, and validates them for provider.
func LoadCredentials(provider string) (*Credentials, error) {
	creds := &Credentials{}

	if path := pkgconfig.LoadEnvString("BLOOP_CONFIG_FILE", ""); path != "" {
		fileCreds, err := LoadCredentialsFile(path)
		if err != nil {
			return nil, err
		}
		creds = fileCreds
	}

	creds.overlayEnv()

	if err := creds.Validate(provider); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}
	return creds, nil
}

// LoadCredentialsFile parses a YAML credential file. It does not validate.
func LoadCredentialsFile(path string) (*Credentials, error) {
	// #nosec G304 -- path comes from the operator's environment
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}
	return &creds, nil
}

func (c *Credentials) overlayEnv() {
	c.Anthropic.APIKey = pkgconfig.LoadEnvString("ANTHROPIC_API_KEY", c.Anthropic.APIKey)
	c.OpenAI.APIKey = pkgconfig.LoadEnvString("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.Ghost.Host = pkgconfig.LoadEnvString("GHOST_HOST", c.Ghost.Host)
	c.Ghost.AdminAPIKey = pkgconfig.LoadEnvString("GHOST_ADMIN_API_KEY", c.Ghost.AdminAPIKey)
	c.Twitter.BearerToken = pkgconfig.LoadEnvString("TWITTER_BEARER_TOKEN", c.Twitter.BearerToken)
	c.Twitter.APIKey = pkgconfig.LoadEnvString("TWITTER_API_KEY", c.Twitter.APIKey)
	c.Twitter.APISecret = pkgconfig.LoadEnvString("TWITTER_API_SECRET", c.Twitter.APISecret)
	c.Twitter.AccessToken = pkgconfig.LoadEnvString("TWITTER_ACCESS_TOKEN", c.Twitter.AccessToken)
	c.Twitter.AccessTokenSecret = pkgconfig.LoadEnvString("TWITTER_ACCESS_TOKEN_SECRET", c.Twitter.AccessTokenSecret)
}

// Validate checks that every credential needed by provider is present.
// All problems are reported together.
func (c *Credentials) Validate(provider string) error {
	var errs []error
	missing := func(name string) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingCredential, name))
	}

	switch provider {
	case ProviderClaude:
		if c.Anthropic.APIKey == "" {
			missing("ANTHROPIC_API_KEY")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			missing("OPENAI_API_KEY")
		}
	default:
		errs = append(errs, fmt.Errorf("unknown generator type %q", provider))
	}

	if c.Ghost.Host == "" {
		missing("GHOST_HOST")
	} else if !strings.HasPrefix(c.Ghost.Host, "http://") && !strings.HasPrefix(c.Ghost.Host, "https://") {
		errs = append(errs, fmt.Errorf("GHOST_HOST must start with http:// or https://, got %q", c.Ghost.Host))
	}
	if c.Ghost.AdminAPIKey == "" {
		missing("GHOST_ADMIN_API_KEY")
	}

	if !c.Twitter.UseOAuth1() && c.Twitter.BearerToken == "" {
		missing("TWITTER_BEARER_TOKEN (or the four OAuth 1.0a TWITTER_* values)")
	}

	return errors.Join(errs...)
}
