// Package founditem stores found items as JSON documents in Valkey/Redis and
// publishes a creation event for each new item.
package founditem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/finder/internal/db"
	"github.com/kailas-cloud/finder/internal/domain"
	"github.com/kailas-cloud/finder/internal/domain/item"
	"github.com/kailas-cloud/finder/internal/domain/vector"
)

// EventField is the stream entry field that carries the created item ID.
const EventField = "item_id"

// store is the consumer interface for found items (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string) ([]byte, error)
	XAdd(ctx context.Context, stream string, fields map[string]string) (string, error)
}

// Repo implements the found-item loader for event sources and the registry writer.
type Repo struct {
	store  store
	prefix string
	stream string
}

// New creates a found-item repository. stream is the events stream fed on Create.
func New(s store, prefix, stream string) *Repo {
	return &Repo{store: s, prefix: prefix, stream: stream}
}

type foundDoc struct {
	Description string    `json:"description"`
	Embedding   []float64 `json:"embedding,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
}

// Get loads a found item by ID.
func (r *Repo) Get(ctx context.Context, id string) (item.Found, error) {
	key := r.key(id)
	raw, err := r.store.JSONGet(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return item.Found{}, fmt.Errorf("found item %s: %w", id, domain.ErrNotFound)
		}
		return item.Found{}, fmt.Errorf("json.get %s: %w", key, err)
	}

	var doc foundDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return item.Found{}, fmt.Errorf("unmarshal found item %s: %w", id, err)
	}
	return item.Reconstruct(id, doc.Description, vector.FromFloat64(doc.Embedding), doc.ImageURL), nil
}

// Create writes the item document, then appends its ID to the events stream.
// The document is written first so consumers never observe an event for a missing item.
func (r *Repo) Create(ctx context.Context, f *item.Found) error {
	data, err := json.Marshal(foundDoc{
		Description: f.Description(),
		Embedding:   vector.ToFloat64(f.Embedding()),
		ImageURL:    f.ImageURL(),
	})
	if err != nil {
		return fmt.Errorf("marshal found item: %w", err)
	}

	key := r.key(f.ID())
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	if _, err := r.store.XAdd(ctx, r.stream, map[string]string{EventField: f.ID()}); err != nil {
		return fmt.Errorf("publish found item %s: %w", f.ID(), err)
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.prefix + domain.FoundItemsCollection + ":" + id
}
