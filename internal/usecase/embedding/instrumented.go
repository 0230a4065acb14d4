package embedding

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/finder/internal/domain"
)

// NewLimiter returns a provider rate limiter for rps requests per second (nil when rps <= 0).
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := max(int(math.Ceil(rps)), 1)
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return nil
}

// InstrumentedEmbedder wraps Embedder with provider rate limiting and logging.
// Transport metrics (requests, duration, tokens) are recorded in the provider transports.
type InstrumentedEmbedder struct {
	inner    Embedder
	provider string
	model    string
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. limiter can be nil.
func NewInstrumentedEmbedder(
	inner Embedder, provider, model string,
	limiter *rate.Limiter, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		limiter:  limiter,
		logger:   logger,
	}
}

// Embed waits for the limiter, then delegates to the inner embedder.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := wait(ctx, p.limiter); err != nil {
		p.logger.Warn("Embedding rate limit wait aborted",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// InstrumentedDescriber wraps Describer with provider rate limiting and logging.
type InstrumentedDescriber struct {
	inner    Describer
	provider string
	model    string
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewInstrumentedDescriber wraps a describer. limiter can be nil.
func NewInstrumentedDescriber(
	inner Describer, provider, model string,
	limiter *rate.Limiter, logger *zap.Logger,
) *InstrumentedDescriber {
	return &InstrumentedDescriber{
		inner:    inner,
		provider: provider,
		model:    model,
		limiter:  limiter,
		logger:   logger,
	}
}

// Describe waits for the limiter, then delegates to the inner describer.
func (p *InstrumentedDescriber) Describe(
	ctx context.Context, image domain.Image, prompt string,
) (domain.DescriptionResult, error) {
	if err := wait(ctx, p.limiter); err != nil {
		p.logger.Warn("Description rate limit wait aborted",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Error(err),
		)
		return domain.DescriptionResult{}, err
	}

	start := time.Now()
	result, err := p.inner.Describe(ctx, image, prompt)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Description request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Int("image_bytes", len(image.Data)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.DescriptionResult{}, fmt.Errorf("describe: %w", err)
	}

	p.logger.Debug("Description request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("image_bytes", len(image.Data)),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}
