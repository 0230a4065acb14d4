package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Describer turns an image into a free-form textual description.
type Describer interface {
	Describe(ctx context.Context, image Image, prompt string) (DescriptionResult, error)
}

// HealthChecker verifies model provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Image is raw image content with its detected MIME type.
type Image struct {
	Data     []byte
	MIMEType string
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// DescriptionResult carries a generated description and token usage.
type DescriptionResult struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}
