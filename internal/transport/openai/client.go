// Package openai implements the description and embedding models on the OpenAI-compatible API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/finder/internal/domain"
	"github.com/kailas-cloud/finder/internal/metrics"
)

// Config holds the provider settings shared by the embedder and the describer.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int // embedder only
	User       string
	Provider   string
	Logger     *zap.Logger
}

func newClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

// call carries the metric labels of one model request.
type call struct {
	provider  string
	model     string
	operation string
	start     time.Time
}

func startCall(provider, model, operation string) call {
	return call{provider: provider, model: model, operation: operation, start: time.Now()}
}

func (c call) fail(errorType string) {
	metrics.ModelRequestsTotal.WithLabelValues(c.provider, c.model, c.operation, "error").Inc()
	metrics.ModelErrorsTotal.WithLabelValues(c.provider, c.model, errorType).Inc()
}

func (c call) succeed(promptTokens, totalTokens int) {
	metrics.ModelRequestsTotal.WithLabelValues(c.provider, c.model, c.operation, "success").Inc()
	metrics.ModelRequestDuration.WithLabelValues(c.provider, c.model, c.operation).
		Observe(time.Since(c.start).Seconds())
	if totalTokens > 0 {
		metrics.ModelTokensTotal.WithLabelValues(c.provider, c.model, "prompt").Add(float64(promptTokens))
		metrics.ModelTokensTotal.WithLabelValues(c.provider, c.model, "total").Add(float64(totalTokens))
	}
}

// healthCheck verifies API availability via ListModels (free endpoint).
func healthCheck(ctx context.Context, client *openai.Client) error {
	if _, err := client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrUpstream.
func parseAPIError(op string, err error) error {
	wrap := domain.ErrUpstream

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: upstream call timed out: %w", op, wrap)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("%s API error %d: %s: %w", op, reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("%s API error %d: %s: %w", op, reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w", op, apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("%s request failed: %v: %w", op, err, wrap)
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
