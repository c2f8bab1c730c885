package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"bloop/internal/domain/entity"
	"bloop/internal/observability/logging"
	"bloop/internal/resilience/circuitbreaker"
	"bloop/internal/utils/text"
)

// OpenAI writes posts using the chat completions API.
type OpenAI struct {
	client          *openai.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	config          Config
	metricsRecorder MetricsRecorder
}

// NewOpenAI creates an OpenAI generator.
// A nil breaker gets a default LLM breaker; a nil recorder discards metrics.
func NewOpenAI(apiKey string, config Config, cb *circuitbreaker.CircuitBreaker, metrics MetricsRecorder) *OpenAI {
	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Transport != nil {
		clientConfig.HTTPClient = &http.Client{Transport: config.Transport}
	}
	if cb == nil {
		cb = circuitbreaker.New(circuitbreaker.LLMConfig())
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	slog.Info("Initialized OpenAI generator",
		slog.String("model", config.Model),
		slog.Int("max_tokens", config.MaxTokens))

	return &OpenAI{
		client:          openai.NewClientWithConfig(clientConfig),
		circuitBreaker:  cb,
		config:          config,
		metricsRecorder: metrics,
	}
}

// Generate returns a blog post about topic.
func (o *OpenAI) Generate(ctx context.Context, topic entity.Topic) (string, error) {
	content, err := circuitbreaker.Do(o.circuitBreaker, func() (string, error) {
		return o.doGenerate(ctx, topic)
	})
	if err != nil {
		o.metricsRecorder.RecordFailure(ProviderOpenAI)
		if errors.Is(err, gobreaker.ErrOpenState) {
			logging.FromContext(ctx).WarnContext(ctx, "openai api circuit breaker open, request rejected",
				slog.String("state", o.circuitBreaker.State().String()))
			return "", fmt.Errorf("openai api unavailable: circuit breaker open: %w", err)
		}
		return "", err
	}
	return content, nil
}

func (o *OpenAI) doGenerate(ctx context.Context, topic entity.Topic) (string, error) {
	logger := logging.FromContext(ctx)

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.config.Model,
		MaxTokens: o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: BuildPrompt(topic),
		}},
	})
	duration := time.Since(start)
	o.metricsRecorder.RecordDuration(ProviderOpenAI, duration)

	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	// Guard the index below.
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api returned no choices: %w", entity.ErrEmptyContent)
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("openai api: %w", entity.ErrEmptyContent)
	}

	length := text.CountRunes(content)
	o.metricsRecorder.RecordLength(ProviderOpenAI, length)
	logger.InfoContext(ctx, "Generation completed",
		slog.String("provider", ProviderOpenAI),
		slog.Int("content_length", length),
		slog.String("finish_reason", string(resp.Choices[0].FinishReason)),
		slog.Duration("duration", duration))

	return content, nil
}
