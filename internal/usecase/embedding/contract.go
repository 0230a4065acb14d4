package embedding

import (
	"context"

	"github.com/kailas-cloud/finder/internal/domain"
)

// ObjectStore fetches uploaded images by storage path.
type ObjectStore interface {
	Fetch(ctx context.Context, path string) (domain.Image, error)
}

// Describer turns an image into text.
type Describer interface {
	Describe(ctx context.Context, image domain.Image, prompt string) (domain.DescriptionResult, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
