// Package ghost publishes posts through the Ghost Admin API.
package ghost

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

	"github.com/sony/gobreaker"

	"bloop/internal/domain/entity"
	"bloop/internal/observability/logging"
	"bloop/internal/resilience/circuitbreaker"
)

const (
	postsPath     = "/ghost/api/admin/posts/?source=html"
	acceptVersion = "v5.0"

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 2048
)

// Config holds Ghost connection settings.
type Config struct {
	// Host is the site root, e.g. "https://blog.example.com".
	Host string

	// AdminAPIKey has the form "{id}:{hex secret}".
	AdminAPIKey string

	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration

	// Transport carries requests. Nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

// Client creates posts on a Ghost site.
type Client struct {
	host           string
	key            adminKey
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	now            func() time.Time
}

// NewClient validates the admin key and returns a client.
// A nil breaker gets a default CMS breaker.
func NewClient(cfg Config, cb *circuitbreaker.CircuitBreaker) (*Client, error) {
	key, err := parseAdminKey(cfg.AdminAPIKey)
	if err != nil {
		return nil, err
	}
	if cb == nil {
		cb = circuitbreaker.New(circuitbreaker.CMSConfig())
	}
	return &Client{
		host:           strings.TrimRight(cfg.Host, "/"),
		key:            key,
		httpClient:     &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		circuitBreaker: cb,
		now:            time.Now,
	}, nil
}

type postPayload struct {
	Title  string `json:"title"`
	HTML   string `json:"html"`
	Status string `json:"status"`
}

type postsRequest struct {
	Posts []postPayload `json:"posts"`
}

type postRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	HTML        string `json:"html"`
	Status      string `json:"status"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
}

type postsResponse struct {
	Posts []postRecord `json:"posts"`
}

// CreatePost publishes title and content with status "published".
// The returned post always carries a valid URL.
func (c *Client) CreatePost(ctx context.Context, title, content string) (entity.Post, error) {
	post, err := circuitbreaker.Do(c.circuitBreaker, func() (entity.Post, error) {
		return c.createPost(ctx, title, content)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			logging.FromContext(ctx).WarnContext(ctx, "ghost circuit breaker open, request rejected",
				slog.String("state", c.circuitBreaker.State().String()))
			return entity.Post{}, fmt.Errorf("ghost unavailable: circuit breaker open: %w", err)
		}
		return entity.Post{}, err
	}
	return post, nil
}

func (c *Client) createPost(ctx context.Context, title, content string) (entity.Post, error) {
	token, err := c.key.sign(c.now())
	if err != nil {
		return entity.Post{}, err
	}

	body, err := json.Marshal(postsRequest{Posts: []postPayload{{
		Title:  title,
		HTML:   ContentToHTML(content),
		Status: entity.PostStatusPublished,
	}}})
	if err != nil {
		return entity.Post{}, fmt.Errorf("marshal post payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+postsPath, bytes.NewReader(body))
	if err != nil {
		return entity.Post{}, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Authorization", "Ghost "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Version", acceptVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.Post{}, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return entity.Post{}, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(respBody) > maxErrorBody {
			respBody = respBody[:maxErrorBody]
		}
		return entity.Post{}, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var decoded postsResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return entity.Post{}, fmt.Errorf("decode ghost response: %w", err)
	}
	if len(decoded.Posts) == 0 || strings.TrimSpace(decoded.Posts[0].URL) == "" {
		return entity.Post{}, ErrMissingURL
	}

	record := decoded.Posts[0]
	if err := entity.ValidatePostURL(record.URL); err != nil {
		return entity.Post{}, fmt.Errorf("ghost returned unusable post url: %w", err)
	}

	post := entity.Post{
		ID:      record.ID,
		Title:   record.Title,
		Content: content,
		Status:  record.Status,
		URL:     record.URL,
	}
	if post.Title == "" {
		post.Title = title
	}
	if record.PublishedAt != "" {
		if t, err := time.Parse(time.RFC3339, record.PublishedAt); err == nil {
			post.PublishedAt = t
		}
	}
	return post, nil
}
