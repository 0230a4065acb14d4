package registry

import (
	"context"

	"github.com/kailas-cloud/finder/internal/domain/alert"
	"github.com/kailas-cloud/finder/internal/domain/item"
	"github.com/kailas-cloud/finder/internal/usecase/embedding"
)

// FoundWriter persists a new found item and announces its creation.
type FoundWriter interface {
	Create(ctx context.Context, f *item.Found) error
}

// AlertWriter persists a lost-item alert.
type AlertWriter interface {
	Save(ctx context.Context, a *alert.Alert) error
}

// Vectorizer computes embeddings for records submitted without one.
type Vectorizer interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, imageURL string) (embedding.ImageEmbedding, error)
}
