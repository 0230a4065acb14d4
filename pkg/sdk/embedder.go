package finder

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/finder/internal/domain"
	embeddinguc "github.com/kailas-cloud/finder/internal/usecase/embedding"
)

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// noopEmbedder returns an error on Embed call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"finder: embedder not configured (use WithEmbedder or pass an embedding)",
	)
}

// textVectorizer serves the registry from a text embedder alone.
type textVectorizer struct {
	embedder domain.Embedder
}

func (v *textVectorizer) EmbedText(ctx context.Context, text string) ([]float32, error) {
	r, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	if len(r.Embedding) == 0 {
		return nil, fmt.Errorf("embed text: empty embedding: %w", domain.ErrUpstream)
	}
	return r.Embedding, nil
}

func (v *textVectorizer) EmbedImage(context.Context, string) (embeddinguc.ImageEmbedding, error) {
	return embeddinguc.ImageEmbedding{}, ErrImageInput
}
