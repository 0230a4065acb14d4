package gemini

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/finder/internal/domain"
)

// Describer generates image descriptions with a multimodal Gemini model.
type Describer struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewDescriber creates a Gemini image describer.
func NewDescriber(client *genai.Client, cfg *Config) *Describer {
	return &Describer{client: client, model: cfg.Model, logger: cfg.Logger}
}

// Describe implements domain.Describer: one generateContent call with the image and prompt.
func (d *Describer) Describe(
	ctx context.Context, image domain.Image, prompt string,
) (domain.DescriptionResult, error) {
	mime := image.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image.Data, mime),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	c := startCall(d.model, "describe")

	resp, err := d.client.Models.GenerateContent(ctx, d.model, contents, nil)
	if err != nil {
		c.fail("api_error")
		return domain.DescriptionResult{}, wrapError("description", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		c.fail("empty_response")
		return domain.DescriptionResult{}, fmt.Errorf("empty description response: %w", domain.ErrUpstream)
	}

	var promptTokens, totalTokens int
	if u := resp.UsageMetadata; u != nil {
		promptTokens = int(u.PromptTokenCount)
		totalTokens = int(u.TotalTokenCount)
	}
	c.succeed(promptTokens, totalTokens)
	d.logger.Debug("Description generated", zap.String("model", d.model), zap.Int("chars", len(text)))

	return domain.DescriptionResult{Text: text, PromptTokens: promptTokens, TotalTokens: totalTokens}, nil
}

// HealthCheck verifies that the configured model is reachable.
func (d *Describer) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, d.client, d.model)
}
