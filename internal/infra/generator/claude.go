package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"bloop/internal/domain/entity"
	"bloop/internal/observability/logging"
	"bloop/internal/resilience/circuitbreaker"
	"bloop/internal/utils/text"
)

// Claude writes posts using Anthropic's Messages API.
type Claude struct {
	client          anthropic.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	config          Config
	metricsRecorder MetricsRecorder
}

// NewClaude creates a Claude generator. SDK-level retries are disabled.
// A nil breaker gets a default LLM breaker; a nil recorder discards metrics.
func NewClaude(apiKey string, config Config, cb *circuitbreaker.CircuitBreaker, metrics MetricsRecorder) *Claude {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Transport != nil {
		opts = append(opts, option.WithHTTPClient(&http.Client{Transport: config.Transport}))
	}
	if cb == nil {
		cb = circuitbreaker.New(circuitbreaker.LLMConfig())
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	slog.Info("Initialized Claude generator",
		slog.String("model", config.Model),
		slog.Int("max_tokens", config.MaxTokens))

	return &Claude{
		client:          anthropic.NewClient(opts...),
		circuitBreaker:  cb,
		config:          config,
		metricsRecorder: metrics,
	}
}

// Generate returns a blog post about topic.
func (c *Claude) Generate(ctx context.Context, topic entity.Topic) (string, error) {
	content, err := circuitbreaker.Do(c.circuitBreaker, func() (string, error) {
		return c.doGenerate(ctx, topic)
	})
	if err != nil {
		c.metricsRecorder.RecordFailure(ProviderClaude)
		if errors.Is(err, gobreaker.ErrOpenState) {
			logging.FromContext(ctx).WarnContext(ctx, "claude api circuit breaker open, request rejected",
				slog.String("state", c.circuitBreaker.State().String()))
			return "", fmt.Errorf("claude api unavailable: circuit breaker open: %w", err)
		}
		return "", err
	}
	return content, nil
}

// doGenerate performs the API call without the circuit breaker.
func (c *Claude) doGenerate(ctx context.Context, topic entity.Topic) (string, error) {
	logger := logging.FromContext(ctx)
	logger.DebugContext(ctx, "Requesting blog post",
		slog.String("topic", topic.String()),
		slog.String("model", c.config.Model))

	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(BuildPrompt(topic)),
			),
		},
	})
	duration := time.Since(start)
	c.metricsRecorder.RecordDuration(ProviderClaude, duration)

	if err != nil {
		return "", fmt.Errorf("claude api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	content := sb.String()
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("claude api: %w", entity.ErrEmptyContent)
	}

	length := text.CountRunes(content)
	c.metricsRecorder.RecordLength(ProviderClaude, length)
	logger.InfoContext(ctx, "Generation completed",
		slog.String("provider", ProviderClaude),
		slog.Int("content_length", length),
		slog.String("stop_reason", string(message.StopReason)),
		slog.Duration("duration", duration))

	return content, nil
}
