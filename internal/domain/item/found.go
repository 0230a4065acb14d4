// Package item holds the found-item aggregate.
package item

// Found is an object someone reported finding. Immutable once written by the ingestion path.
type Found struct {
	id          string
	description string
	embedding   []float32
	imageURL    string
}

// Reconstruct creates a Found item without validation (storage hydration).
func Reconstruct(id, description string, embedding []float32, imageURL string) Found {
	return Found{id: id, description: description, embedding: embedding, imageURL: imageURL}
}

// ID returns the item identifier.
func (f *Found) ID() string { return f.id }

// Description returns the item description.
func (f *Found) Description() string { return f.description }

// Embedding returns the item embedding, nil when the item was stored without one.
func (f *Found) Embedding() []float32 { return f.embedding }

// ImageURL returns the optional image reference.
func (f *Found) ImageURL() string { return f.imageURL }

// Matchable reports whether the item carries an embedding.
func (f *Found) Matchable() bool { return len(f.embedding) > 0 }
