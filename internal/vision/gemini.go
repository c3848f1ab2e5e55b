package vision

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"github.com/Rorical/RoriAge/internal/config"
)

// DefaultGeminiModel is used when a gemini profile names no model.
const DefaultGeminiModel = "gemini-1.5-flash"

type geminiBackend struct {
	client         *genai.Client
	modelName      string
	requiredModels []string
}

// NewGeminiBackend estimates ages with a Gemini vision model.
func NewGeminiBackend(p config.Profile) (Backend, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrNoAPIKey)
	}

	modelName := p.Model
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(p.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	return &geminiBackend{
		client:         client,
		modelName:      modelName,
		requiredModels: requiredModels(modelName, p.RequiredModels),
	}, nil
}

func (g *geminiBackend) Name() string { return config.ProviderGemini }

func (g *geminiBackend) Load(ctx context.Context) error {
	eg, gctx := errgroup.WithContext(ctx)
	for _, name := range g.requiredModels {
		name := name
		eg.Go(func() error {
			if _, err := g.client.GenerativeModel(name).Info(gctx); err != nil {
				return fmt.Errorf("model %s: %w", name, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	return nil
}

func (g *geminiBackend) Detect(ctx context.Context, frame Frame) (*Estimate, error) {
	if len(frame.Data) == 0 {
		return nil, ErrEmptyFrame
	}

	model := g.client.GenerativeModel(g.modelName)
	model.ResponseMIMEType = "application/json"

	res, err := model.GenerateContent(ctx, genai.Text(agePrompt), genai.ImageData(frame.Format(), frame.Data))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no response from Gemini API")
	}

	text, ok := res.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, errors.New("unexpected response format from Gemini API")
	}

	return parseEstimate(string(text))
}

func (g *geminiBackend) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
