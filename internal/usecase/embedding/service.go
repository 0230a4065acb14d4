package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/finder/internal/domain"
	"github.com/kailas-cloud/finder/internal/domain/reference"
	"github.com/kailas-cloud/finder/internal/logger"
)

// Prompts are sent with images to the description model.
type Prompts struct {
	Describe string // image-description endpoint
	Search   string // image-embedding endpoint
}

// ImageEmbedding is an image vector together with the description it was derived from.
type ImageEmbedding struct {
	Embedding   []float32
	Description string
}

// Service turns images and text into descriptions and embeddings.
// Images are never embedded directly: they are described first, then the description is embedded.
type Service struct {
	describer Describer
	embedder  Embedder
	objects   ObjectStore
	prompts   Prompts
}

// New creates an embedding service.
func New(d Describer, e Embedder, o ObjectStore, p Prompts) *Service {
	return &Service{describer: d, embedder: e, objects: o, prompts: p}
}

// DescribeImage resolves an encoded storage URL and describes the referenced image.
func (s *Service) DescribeImage(ctx context.Context, imageURL string) (string, error) {
	img, err := s.fetch(ctx, imageURL)
	if err != nil {
		return "", err
	}
	return s.describe(ctx, img, s.prompts.Describe)
}

// EmbedText vectorizes text with the embedding model.
func (s *Service) EmbedText(ctx context.Context, text string) ([]float32, error) {
	res, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, upstream(ctx, "embed text", err)
	}
	if len(res.Embedding) == 0 {
		return nil, fmt.Errorf("embed text: empty embedding: %w", domain.ErrUpstream)
	}
	domain.UsageFromContext(ctx).AddEmbedding(res.TotalTokens)
	return res.Embedding, nil
}

// EmbedImage describes the referenced image with the search prompt and embeds the description.
func (s *Service) EmbedImage(ctx context.Context, imageURL string) (ImageEmbedding, error) {
	img, err := s.fetch(ctx, imageURL)
	if err != nil {
		return ImageEmbedding{}, err
	}

	desc, err := s.describe(ctx, img, s.prompts.Search)
	if err != nil {
		return ImageEmbedding{}, err
	}

	vec, err := s.EmbedText(ctx, desc)
	if err != nil {
		return ImageEmbedding{}, err
	}

	logger.FromContext(ctx).Debug("Image embedded",
		zap.Int("dimensions", len(vec)),
		zap.Int("description_chars", len(desc)),
	)
	return ImageEmbedding{Embedding: vec, Description: desc}, nil
}

func (s *Service) fetch(ctx context.Context, imageURL string) (domain.Image, error) {
	path, err := reference.ExtractPath(imageURL)
	if err != nil {
		return domain.Image{}, err
	}

	img, err := s.objects.Fetch(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Image{}, err
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.Image{}, fmt.Errorf("fetch image: upstream call timed out: %w", domain.ErrUpstream)
		}
		return domain.Image{}, fmt.Errorf("fetch image %s: %w", path, err)
	}
	return img, nil
}

func (s *Service) describe(ctx context.Context, img domain.Image, prompt string) (string, error) {
	res, err := s.describer.Describe(ctx, img, prompt)
	if err != nil {
		return "", upstream(ctx, "describe image", err)
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", fmt.Errorf("describe image: empty description: %w", domain.ErrUpstream)
	}
	domain.UsageFromContext(ctx).AddDescription(res.TotalTokens)
	return text, nil
}

// upstream normalizes model failures to domain.ErrUpstream, reporting expired deadlines as timeouts.
func upstream(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrUpstream) {
		return fmt.Errorf("%s: upstream call timed out: %w", op, domain.ErrUpstream)
	}
	if errors.Is(err, domain.ErrUpstream) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrUpstream)
}
