package firestore

import (
	"context"
	"fmt"

	fs "cloud.google.com/go/firestore"

	"github.com/kailas-cloud/finder/internal/domain"
	"github.com/kailas-cloud/finder/internal/domain/item"
)

// FoundItemRepo reads and writes found items.
type FoundItemRepo struct {
	client *fs.Client
}

// NewFoundItemRepo creates a Firestore-backed found-item repository.
func NewFoundItemRepo(c *fs.Client) *FoundItemRepo {
	return &FoundItemRepo{client: c}
}

// Get loads a found item by ID.
func (r *FoundItemRepo) Get(ctx context.Context, id string) (item.Found, error) {
	snap, err := r.client.Collection(itemsCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return item.Found{}, fmt.Errorf("found item %s: %w", id, domain.ErrNotFound)
		}
		return item.Found{}, fmt.Errorf("get found item %s: %w", id, err)
	}
	return FoundFromData(id, snap.Data()), nil
}

// Create writes a new found item document. The snapshot listener picks it up as DocumentAdded.
func (r *FoundItemRepo) Create(ctx context.Context, f *item.Found) error {
	data := map[string]any{
		fieldDescription: f.Description(),
		"createdAt":      fs.ServerTimestamp,
	}
	if e := embeddingToData(f.Embedding()); e != nil {
		data[fieldEmbedding] = e
	}
	if f.ImageURL() != "" {
		data[fieldImageURL] = f.ImageURL()
	}
	if _, err := r.client.Collection(itemsCollection).Doc(f.ID()).Create(ctx, data); err != nil {
		return fmt.Errorf("create found item %s: %w", f.ID(), err)
	}
	return nil
}
