package vision

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/Rorical/RoriAge/internal/config"
)

type openAIBackend struct {
	client         *openai.Client
	model          string
	requiredModels []string
}

// NewOpenAIBackend estimates ages with an OpenAI compatible vision model.
func NewOpenAIBackend(p config.Profile) (Backend, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrNoAPIKey)
	}

	clientConfig := openai.DefaultConfig(p.APIKey)
	if p.BaseURL != "" {
		clientConfig.BaseURL = p.BaseURL
	}

	model := p.Model
	if model == "" {
		model = config.DefaultModel
	}

	return &openAIBackend{
		client:         openai.NewClientWithConfig(clientConfig),
		model:          model,
		requiredModels: requiredModels(model, p.RequiredModels),
	}, nil
}

func (b *openAIBackend) Name() string { return config.ProviderOpenAI }

// Load checks every required model is served by the endpoint.
func (b *openAIBackend) Load(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range b.requiredModels {
		name := name
		g.Go(func() error {
			if _, err := b.client.GetModel(gctx, name); err != nil {
				return fmt.Errorf("model %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	return nil
}

func (b *openAIBackend) Detect(ctx context.Context, frame Frame) (*Estimate, error) {
	if len(frame.Data) == 0 {
		return nil, ErrEmptyFrame
	}

	req := openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: agePrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Estimate the age of the person in this frame.",
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    frame.DataURL(),
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens: 64,
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrMalformedEstimate)
	}

	return parseEstimate(resp.Choices[0].Message.Content)
}

func (b *openAIBackend) Close() error { return nil }

func requiredModels(primary string, extra []string) []string {
	seen := map[string]bool{primary: true}
	out := []string{primary}
	for _, name := range extra {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
