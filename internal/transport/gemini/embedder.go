package gemini

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/finder/internal/domain"
)

// Embedder vectorizes text with a Gemini embedding model.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
	logger     *zap.Logger
}

// NewEmbedder creates a Gemini text embedder.
func NewEmbedder(client *genai.Client, cfg *Config) *Embedder {
	return &Embedder{client: client, model: cfg.Model, dimensions: cfg.Dimensions, logger: cfg.Logger}
}

// Embed implements domain.Embedder. The API does not report token usage for embeddings.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	var cfg *genai.EmbedContentConfig
	if e.dimensions > 0 && e.dimensions <= math.MaxInt32 {
		//nolint:gosec // G115: bounded above by math.MaxInt32
		dim := int32(e.dimensions)
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}

	c := startCall(e.model, "embed")

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
	if err != nil {
		c.fail("api_error")
		return domain.EmbeddingResult{}, wrapError("embedding", err)
	}

	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		c.fail("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrUpstream)
	}

	c.succeed(0, 0)
	vec := resp.Embeddings[0].Values
	e.logger.Debug("Embedding generated", zap.String("model", e.model), zap.Int("dimensions", len(vec)))

	return domain.EmbeddingResult{Embedding: vec}, nil
}

// HealthCheck verifies that the configured model is reachable.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, e.client, e.model)
}
