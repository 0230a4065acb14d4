// Package alert holds the lost-item alert aggregate.
package alert

// Alert is a standing registration by a user searching for a lost object.
type Alert struct {
	id          string
	email       string
	description string
	embedding   []float32
}

// Reconstruct creates an Alert without validation (storage hydration).
func Reconstruct(id, email, description string, embedding []float32) Alert {
	return Alert{id: id, email: email, description: description, embedding: embedding}
}

// ID returns the alert identifier.
func (a *Alert) ID() string { return a.id }

// Email returns the contact address of the alert owner.
func (a *Alert) Email() string { return a.email }

// Description returns the original search description.
func (a *Alert) Description() string { return a.description }

// Embedding returns the alert embedding, nil when absent.
func (a *Alert) Embedding() []float32 { return a.embedding }

// Matchable reports whether the alert carries an embedding.
func (a *Alert) Matchable() bool { return len(a.embedding) > 0 }
