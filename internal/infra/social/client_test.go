package social

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const announcement = "🤖 Just published my thoughts on Digital Innovation! Check it out: https://x/y"

type captured struct {
	auth string
	path string
	text string
}

func newServer(t *testing.T, status int, body string, got *captured) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.auth = r.Header.Get("Authorization")
		got.path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		var req tweetRequest
		_ = json.Unmarshal(raw, &req)
		got.text = req.Text

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewClient_AuthSelection(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{"oauth1 when all four set", Config{ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessTokenSecret: "ats", BearerToken: "b"}, AuthOAuth1, false},
		{"bearer when oauth incomplete", Config{ConsumerKey: "ck", BearerToken: "b"}, AuthBearer, false},
		{"nothing set", Config{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg, nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, client.AuthMode())
		})
	}
}

func TestPost_Bearer(t *testing.T) {
	var got captured
	server := newServer(t, http.StatusCreated, `{"data":{"id":"1790000000000000001","text":"ok"}}`, &got)

	client, err := NewClient(Config{BaseURL: server.URL, BearerToken: "token-123"}, nil)
	require.NoError(t, err)

	id, err := client.Post(context.Background(), announcement)

	require.NoError(t, err)
	assert.Equal(t, "1790000000000000001", id)
	assert.Equal(t, "/2/tweets", got.path)
	assert.Equal(t, "Bearer token-123", got.auth)
	assert.Equal(t, announcement, got.text)
}

func TestPost_OAuth1SignsRequest(t *testing.T) {
	var got captured
	server := newServer(t, http.StatusCreated, `{"data":{"id":"42"}}`, &got)

	client, err := NewClient(Config{
		BaseURL:           server.URL,
		ConsumerKey:       "consumer-key",
		ConsumerSecret:    "consumer-secret",
		AccessToken:       "access-token",
		AccessTokenSecret: "access-secret",
	}, nil)
	require.NoError(t, err)

	id, err := client.Post(context.Background(), announcement)

	require.NoError(t, err)
	assert.Equal(t, "42", id)
	require.True(t, strings.HasPrefix(got.auth, "OAuth "), "got %q", got.auth)
	assert.Contains(t, got.auth, `oauth_consumer_key="consumer-key"`)
	assert.Contains(t, got.auth, `oauth_token="access-token"`)
	assert.Contains(t, got.auth, `oauth_signature_method="HMAC-SHA1"`)
	assert.Equal(t, announcement, got.text)
}

func TestPost_APIError(t *testing.T) {
	var got captured
	server := newServer(t, http.StatusForbidden, `{"title":"Forbidden","detail":"duplicate content"}`, &got)

	client, err := NewClient(Config{BaseURL: server.URL, BearerToken: "t"}, nil)
	require.NoError(t, err)

	id, err := client.Post(context.Background(), announcement)

	assert.Empty(t, id)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "duplicate content")
}

func TestPost_MissingID(t *testing.T) {
	var got captured
	server := newServer(t, http.StatusCreated, `{"data":{}}`, &got)

	client, err := NewClient(Config{BaseURL: server.URL, BearerToken: "t"}, nil)
	require.NoError(t, err)

	_, err = client.Post(context.Background(), announcement)
	assert.True(t, errors.Is(err, ErrMissingTweetID))
}

func TestPost_CircuitOpen(t *testing.T) {
	var got captured
	server := newServer(t, http.StatusServiceUnavailable, `{}`, &got)

	client, err := NewClient(Config{BaseURL: server.URL, BearerToken: "t"}, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _ = client.Post(context.Background(), announcement)
	}
	got.path = ""

	_, err = client.Post(context.Background(), announcement)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Empty(t, got.path, "no request should reach the server")
}

type countingTransport struct {
	calls int
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls++
	return http.DefaultTransport.RoundTrip(r)
}

func TestPost_UsesConfiguredTransport(t *testing.T) {
	for _, cfg := range []Config{
		{BearerToken: "b"},
		{ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessTokenSecret: "ats"},
	} {
		var got captured
		server := newServer(t, http.StatusCreated, `{"data":{"id":"42","text":"hi"}}`, &got)
		transport := &countingTransport{}
		cfg.BaseURL = server.URL
		cfg.Transport = transport

		client, err := NewClient(cfg, nil)
		require.NoError(t, err)
		id, err := client.Post(context.Background(), "hi")
		require.NoError(t, err)
		assert.Equal(t, "42", id)
		assert.Equal(t, 1, transport.calls, client.AuthMode())
	}
}

func TestNewClient_NoTimeoutByDefault(t *testing.T) {
	for _, cfg := range []Config{
		{BearerToken: "b"},
		{ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessTokenSecret: "ats"},
	} {
		client, err := NewClient(cfg, nil)
		require.NoError(t, err)
		assert.Zero(t, client.httpClient.Timeout, client.AuthMode())
	}
}
