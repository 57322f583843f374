package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/vitiscan/treatment-plan/internal/config"
	"github.com/vitiscan/treatment-plan/internal/entity"
	"github.com/vitiscan/treatment-plan/internal/integration/common"
	pkghttp "github.com/vitiscan/treatment-plan/pkg/http"
)

var (
	errNoChoices       = errors.New("completion contains no choices")
	errEmptyCompletion = errors.New("completion is empty")
)

// Connector calls an OpenAI-compatible chat completion endpoint
// (Hugging Face router, TGI, vLLM).
type Connector struct {
	config    config.LLMConnectorConfig
	connector *pkghttp.Connector
}

func NewConnector(cfg config.LLMConnectorConfig) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig),
		config:    cfg,
	}
}

// Complete sends prompt as a single user message and returns the trimmed
// answer. Failures left after retrying wrap entity.ErrLLMUnavailable.
func (c *Connector) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", entity.ErrEmptyPrompt
	}

	req := &entity.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []entity.ChatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		TopP:        c.config.TopP,
		Stream:      false,
	}

	ctxzap.Info(ctx, "requesting completion from LLM service",
		zap.String("model", c.config.Model),
		zap.Int("prompt_length", len(prompt)),
	)

	text, err := retry.DoWithData(
		func() (string, error) {
			attemptCtx, cancel := c.config.Retry.AttemptContext(ctx)
			defer cancel()
			return c.complete(attemptCtx, req)
		},
		c.config.Retry.ToRetryOptions(ctx, "llm_completion", retryable)...,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrLLMUnavailable, err)
	}

	ctxzap.Info(ctx, "completion received", zap.Int("answer_length", len(text)))

	return text, nil
}

func (c *Connector) complete(ctx context.Context, req *entity.ChatCompletionRequest) (string, error) {
	var resp entity.ChatCompletionResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.CompletionEndpoint, req, &resp); err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errEmptyCompletion
	}

	return text, nil
}

// retryable retries everything except client errors other than 408/429
// and a cancelled caller.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		return pkghttp.IsRetryable(err)
	}
	return true
}
