package chi

import (
	"context"

	"github.com/kailas-cloud/finder/internal/domain/alert"
	"github.com/kailas-cloud/finder/internal/domain/item"
	embeddinguc "github.com/kailas-cloud/finder/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/finder/internal/usecase/health"
	registryuc "github.com/kailas-cloud/finder/internal/usecase/registry"
)

// Vectorizer serves the description and embedding endpoints.
type Vectorizer interface {
	DescribeImage(ctx context.Context, imageURL string) (string, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, imageURL string) (embeddinguc.ImageEmbedding, error)
}

// Registry stores found items and lost-item alerts.
type Registry interface {
	ReportFound(ctx context.Context, in registryuc.FoundInput) (item.Found, error)
	RegisterAlert(ctx context.Context, in registryuc.AlertInput) (alert.Alert, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
