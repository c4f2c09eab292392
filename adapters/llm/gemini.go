package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/rakhadane/suara/domain/repositories"
)

const (
	defaultModel       = "gemini-2.0-flash"
	defaultTemperature = 0.7
	defaultTopP        = 0.95
	defaultTopK        = 40
	defaultMaxTokens   = 1024
)

const defaultSystemPrompt = "You are a friendly voice assistant. Keep answers short, " +
	"conversational, and easy to speak aloud. Use complete sentences and avoid lists, " +
	"markdown, and code."

// GeminiConfig holds the tunable generation settings.
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int
	SystemPrompt    string
}

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("google AI API key is required")
	}

	// Validate temperature is in the valid range
	if config.Temperature != 0 && (config.Temperature < 0 || config.Temperature > 1) {
		return fmt.Errorf("temperature must be between 0 and 1, got %f", config.Temperature)
	}

	// Validate topP is in the valid range
	if config.TopP != 0 && (config.TopP < 0 || config.TopP > 1) {
		return fmt.Errorf("topP must be between 0 and 1, got %f", config.TopP)
	}

	// Validate topK is positive if specified
	if config.TopK < 0 {
		return fmt.Errorf("topK must be positive, got %f", config.TopK)
	}

	return nil
}

// GeminiLanguageModel implements the LanguageModel interface using
// Google's Gemini API with streamed generation.
type GeminiLanguageModel struct {
	client          *genai.Client
	logger          *zap.Logger
	model           string
	temperature     float32
	topP            float32
	topK            float32
	maxOutputTokens int
	systemPrompt    string
	safetySettings  []*genai.SafetySetting
}

// NewGeminiLanguageModel creates a new Gemini language model instance
func NewGeminiLanguageModel(config GeminiConfig, logger *zap.Logger) (*GeminiLanguageModel, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultModel
		logger.Info("Using default model", zap.String("model", model))
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = float32(defaultTemperature)
	}

	topP := config.TopP
	if topP == 0 {
		topP = float32(defaultTopP)
	}

	topK := config.TopK
	if topK == 0 {
		topK = float32(defaultTopK)
	}

	maxOutputTokens := config.MaxOutputTokens
	if maxOutputTokens == 0 {
		maxOutputTokens = defaultMaxTokens
	}

	systemPrompt := config.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	return &GeminiLanguageModel{
		client:          client,
		logger:          logger,
		model:           model,
		temperature:     temperature,
		topP:            topP,
		topK:            topK,
		maxOutputTokens: maxOutputTokens,
		systemPrompt:    systemPrompt,
		safetySettings: []*genai.SafetySetting{
			{
				Category:  genai.HarmCategoryHarassment,
				Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
			},
			{
				Category:  genai.HarmCategoryHateSpeech,
				Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
			},
			{
				Category:  genai.HarmCategorySexuallyExplicit,
				Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
			},
			{
				Category:  genai.HarmCategoryDangerousContent,
				Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
			},
		},
	}, nil
}

// StreamResponse generates a reply to the transcript and relays tokens
// as they stream from the model.
func (g *GeminiLanguageModel) StreamResponse(ctx context.Context, transcript string) (<-chan repositories.ResponseChunk, <-chan error) {
	out := make(chan repositories.ResponseChunk)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		if err := g.generate(ctx, transcript, out); err != nil {
			errs <- err
		}
	}()

	return out, errs
}

func (g *GeminiLanguageModel) generate(ctx context.Context, transcript string, out chan<- repositories.ResponseChunk) error {
	contents := []*genai.Content{
		genai.NewContentFromText(transcript, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.systemPrompt, genai.RoleUser),
		SafetySettings:    g.safetySettings,
		Temperature:       genai.Ptr(g.temperature),
		TopP:              genai.Ptr(g.topP),
		TopK:              genai.Ptr(g.topK),
		MaxOutputTokens:   int32(g.maxOutputTokens),
	}

	started := time.Now()
	emitted := false

	for response, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, config) {
		if err != nil {
			return fmt.Errorf("failed to generate content: %w", err)
		}

		var text string
		for _, candidate := range response.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				text += part.Text
			}
		}
		if text == "" {
			continue
		}

		select {
		case out <- repositories.ResponseChunk{Text: text}:
			emitted = true
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if !emitted {
		return fmt.Errorf("no content generated")
	}

	g.logger.Debug("Generation stream finished", zap.Duration("elapsed", time.Since(started)))

	select {
	case out <- repositories.ResponseChunk{Final: true}:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
