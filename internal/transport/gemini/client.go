// Package gemini implements the description and embedding models on the Gemini API
// via the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/finder/internal/domain"
	"github.com/kailas-cloud/finder/internal/metrics"
)

const provider = "gemini"

// Config holds the Gemini settings shared by the describer and the embedder.
type Config struct {
	APIKey  string
	BaseURL string // empty = public Gemini endpoint
	Model   string
	// Dimensions requests a reduced output size from the embedding model (0 = model default).
	Dimensions int
	Logger     *zap.Logger
}

// NewClient creates a Gemini API client. One client is shared by all models.
func NewClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return client, nil
}

type call struct {
	model     string
	operation string
	start     time.Time
}

func startCall(model, operation string) call {
	return call{model: model, operation: operation, start: time.Now()}
}

func (c call) fail(errorType string) {
	metrics.ModelRequestsTotal.WithLabelValues(provider, c.model, c.operation, "error").Inc()
	metrics.ModelErrorsTotal.WithLabelValues(provider, c.model, errorType).Inc()
}

func (c call) succeed(promptTokens, totalTokens int) {
	metrics.ModelRequestsTotal.WithLabelValues(provider, c.model, c.operation, "success").Inc()
	metrics.ModelRequestDuration.WithLabelValues(provider, c.model, c.operation).
		Observe(time.Since(c.start).Seconds())
	if totalTokens > 0 {
		metrics.ModelTokensTotal.WithLabelValues(provider, c.model, "prompt").Add(float64(promptTokens))
		metrics.ModelTokensTotal.WithLabelValues(provider, c.model, "total").Add(float64(totalTokens))
	}
}

// wrapError maps SDK failures onto domain.ErrUpstream, keeping the API message.
func wrapError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: upstream call timed out: %w", op, domain.ErrUpstream)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w", op, apiErr.Code, apiErr.Message, domain.ErrUpstream)
	}
	return fmt.Errorf("%s request failed: %v: %w", op, err, domain.ErrUpstream)
}

func healthCheck(ctx context.Context, client *genai.Client, model string) error {
	if _, err := client.Models.Get(ctx, model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", model, err)
	}
	return nil
}
