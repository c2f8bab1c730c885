// Package social posts announcements to X through the API v2.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/sony/gobreaker"

	"bloop/internal/observability/logging"
	"bloop/internal/resilience/circuitbreaker"
)

const (
	// DefaultBaseURL is the X API v2 root.
	DefaultBaseURL = "https://api.twitter.com"

	tweetsPath   = "/2/tweets"
	maxErrorBody = 2048
)

// Auth modes reported by Client.AuthMode.
const (
	AuthOAuth1 = "oauth1"
	AuthBearer = "bearer"
)

// ErrMissingTweetID is returned when X accepts a post but returns no ID.
var ErrMissingTweetID = errors.New("x api response has no tweet id")

// APIError is a non-2xx response from the X API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("x api returned status %d: %s", e.StatusCode, e.Body)
}

// Config holds X credentials. The OAuth 1.0a user context is used when all four
// of its values are set; otherwise BearerToken is sent.
type Config struct {
	BaseURL           string
	BearerToken       string
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string

	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration

	// Transport carries requests. Nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

func (c Config) useOAuth1() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.AccessToken != "" && c.AccessTokenSecret != ""
}

// Client posts tweets.
type Client struct {
	baseURL        string
	bearerToken    string
	authMode       string
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewClient returns a client for cfg. A nil breaker gets a default social breaker.
func NewClient(cfg Config, cb *circuitbreaker.CircuitBreaker) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cb == nil {
		cb = circuitbreaker.New(circuitbreaker.SocialConfig())
	}

	client := &Client{
		baseURL:        baseURL,
		circuitBreaker: cb,
	}

	switch {
	case cfg.useOAuth1():
		oauthConfig := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
		token := oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)
		ctx := oauth1.NoContext
		if cfg.Transport != nil {
			ctx = context.WithValue(ctx, oauth1.HTTPClient, &http.Client{Transport: cfg.Transport})
		}
		client.httpClient = oauthConfig.Client(ctx, token)
		client.httpClient.Timeout = cfg.Timeout
		client.authMode = AuthOAuth1
	case cfg.BearerToken != "":
		client.httpClient = &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport}
		client.bearerToken = cfg.BearerToken
		client.authMode = AuthBearer
	default:
		return nil, errors.New("x api credentials missing: need a bearer token or the four OAuth 1.0a values")
	}

	return client, nil
}

// AuthMode reports which authentication the client uses.
func (c *Client) AuthMode() string {
	return c.authMode
}

type tweetRequest struct {
	Text string `json:"text"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Post publishes text as a new public tweet and returns its ID.
func (c *Client) Post(ctx context.Context, text string) (string, error) {
	id, err := circuitbreaker.Do(c.circuitBreaker, func() (string, error) {
		return c.post(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			logging.FromContext(ctx).WarnContext(ctx, "x api circuit breaker open, request rejected",
				slog.String("state", c.circuitBreaker.State().String()))
			return "", fmt.Errorf("x api unavailable: circuit breaker open: %w", err)
		}
		return "", err
	}
	return id, nil
}

func (c *Client) post(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(tweetRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("marshal tweet payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tweetsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authMode == AuthBearer {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(respBody) > maxErrorBody {
			respBody = respBody[:maxErrorBody]
		}
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var decoded tweetResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("decode x api response: %w", err)
	}
	if decoded.Data.ID == "" {
		return "", ErrMissingTweetID
	}
	return decoded.Data.ID, nil
}
