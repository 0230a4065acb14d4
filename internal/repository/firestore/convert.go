package firestore

import (
	"errors"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kailas-cloud/finder/internal/domain"
	"github.com/kailas-cloud/finder/internal/domain/alert"
	"github.com/kailas-cloud/finder/internal/domain/item"
	"github.com/kailas-cloud/finder/internal/domain/vector"
)

const (
	alertsCollection = domain.LostAlertsCollection
	itemsCollection  = domain.FoundItemsCollection
	mailCollection   = domain.MailCollection
)

// Document field names, shared with the mobile client.
const (
	fieldDescription = "description"
	fieldEmbedding   = "embedding"
	fieldImageURL    = "imageUrl"
	fieldEmail       = "email"
)

func isDone(err error) bool {
	return errors.Is(err, iterator.Done)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// embeddingFrom accepts a numeric array (as written by the mobile client) or a native vector value.
// Anything else yields nil, which makes the record unmatchable instead of failing the load.
func embeddingFrom(v any) []float32 {
	switch e := v.(type) {
	case fs.Vector32:
		return []float32(e)
	case fs.Vector64:
		out := make([]float32, len(e))
		for i, f := range e {
			out[i] = float32(f)
		}
		return out
	case []any:
		out := make([]float32, 0, len(e))
		for _, x := range e {
			switch n := x.(type) {
			case float64:
				out = append(out, float32(n))
			case int64:
				out = append(out, float32(n))
			default:
				return nil
			}
		}
		return out
	default:
		return nil
	}
}

func stringFrom(v any) string {
	s, _ := v.(string)
	return s
}

// FoundFromData builds a found item from a document's fields.
func FoundFromData(id string, data map[string]any) item.Found {
	return item.Reconstruct(
		id,
		stringFrom(data[fieldDescription]),
		embeddingFrom(data[fieldEmbedding]),
		stringFrom(data[fieldImageURL]),
	)
}

func alertFromData(id string, data map[string]any) alert.Alert {
	return alert.Reconstruct(
		id,
		stringFrom(data[fieldEmail]),
		stringFrom(data[fieldDescription]),
		embeddingFrom(data[fieldEmbedding]),
	)
}

// embeddingToData converts a vector for storage; empty vectors are not stored.
func embeddingToData(v []float32) []float64 {
	if len(v) == 0 {
		return nil
	}
	return vector.ToFloat64(v)
}
