package domain

import "context"

type modelUsageKey struct{}

// ModelUsage collects model token usage for a single HTTP request.
// The handler puts a mutable pointer into the context before calling the service;
// the service records usage after each model call; the handler reads it for response headers.
type ModelUsage struct {
	DescriptionTokens int
	EmbeddingTokens   int
	Calls             int
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *ModelUsage) {
	u := &ModelUsage{}
	return context.WithValue(ctx, modelUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *ModelUsage {
	u, _ := ctx.Value(modelUsageKey{}).(*ModelUsage)
	return u
}

// AddDescription records tokens consumed by a description call.
func (u *ModelUsage) AddDescription(tokens int) {
	if u != nil {
		u.DescriptionTokens += tokens
		u.Calls++
	}
}

// AddEmbedding records tokens consumed by an embedding call.
func (u *ModelUsage) AddEmbedding(tokens int) {
	if u != nil {
		u.EmbeddingTokens += tokens
		u.Calls++
	}
}
