package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/finder/internal/domain"
)

// Describer generates image descriptions with a vision-capable chat model.
type Describer struct {
	client   *openai.Client
	model    string
	user     string
	provider string
	logger   *zap.Logger
}

// NewDescriber creates an OpenAI-compatible image describer.
func NewDescriber(cfg *Config) *Describer {
	return &Describer{
		client:   newClient(cfg),
		model:    cfg.Model,
		user:     cfg.User,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Describe implements domain.Describer. The image is inlined as a base64 data URL.
func (d *Describer) Describe(
	ctx context.Context, image domain.Image, prompt string,
) (domain.DescriptionResult, error) {
	req := openai.ChatCompletionRequest{
		Model: d.model,
		User:  d.user,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL(image),
						Detail: openai.ImageURLDetailAuto,
					},
				},
			},
		}},
	}

	c := startCall(d.provider, d.model, "describe")

	resp, err := d.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.fail("api_error")
		return domain.DescriptionResult{}, parseAPIError("description", err)
	}

	var text string
	if len(resp.Choices) > 0 {
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if text == "" {
		c.fail("empty_response")
		return domain.DescriptionResult{}, fmt.Errorf("empty description response: %w", domain.ErrUpstream)
	}

	c.succeed(resp.Usage.PromptTokens, resp.Usage.TotalTokens)
	d.logger.Debug("Description generated", zap.String("model", d.model), zap.Int("chars", len(text)))

	return domain.DescriptionResult{
		Text:         text,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability.
func (d *Describer) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, d.client)
}

func dataURL(img domain.Image) string {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
