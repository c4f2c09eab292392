package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/rakhadane/suara/domain/repositories"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAILanguageModel implements the LanguageModel interface against any
// OpenAI-compatible chat completions endpoint using server-sent events.
type OpenAILanguageModel struct {
	httpClient   *http.Client
	endpoint     string
	apiKey       string
	model        string
	systemPrompt string
	logger       *zap.Logger
}

// OpenAIConfig holds connection settings for a chat completions endpoint.
type OpenAIConfig struct {
	Endpoint     string
	APIKey       string
	Model        string
	SystemPrompt string
}

func NewOpenAILanguageModel(config OpenAIConfig, logger *zap.Logger) (*OpenAILanguageModel, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai api key missing")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("openai model missing")
	}

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	systemPrompt := config.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	return &OpenAILanguageModel{
		// No client timeout; streams stay open as long as tokens flow
		// and the request context bounds the call.
		httpClient:   &http.Client{},
		endpoint:     endpoint,
		apiKey:       config.APIKey,
		model:        config.Model,
		systemPrompt: systemPrompt,
		logger:       logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
}

type chatCompletionsDelta struct {
	Content string `json:"content"`
}

type chatCompletionsStreamChoice struct {
	Delta        chatCompletionsDelta `json:"delta"`
	FinishReason string               `json:"finish_reason"`
}

type chatCompletionsStreamResponse struct {
	Choices []chatCompletionsStreamChoice `json:"choices"`
}

func (o *OpenAILanguageModel) StreamResponse(ctx context.Context, transcript string) (<-chan repositories.ResponseChunk, <-chan error) {
	out := make(chan repositories.ResponseChunk)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		if err := o.generate(ctx, transcript, out); err != nil {
			errs <- err
		}
	}()

	return out, errs
}

func (o *OpenAILanguageModel) generate(ctx context.Context, transcript string, out chan<- repositories.ResponseChunk) error {
	messages := []chatMessage{
		{Role: "system", Content: o.systemPrompt},
		{Role: "user", Content: transcript},
	}

	reqBody, err := json.Marshal(chatCompletionsRequest{Model: o.model, Messages: messages, Stream: true})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chat completions error: status=%d body=%s", resp.StatusCode, string(b))
	}

	emitted := false
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			break
		}

		var event chatCompletionsStreamResponse
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			o.logger.Warn("Unparseable stream event dropped", zap.Error(err))
			continue
		}
		if len(event.Choices) == 0 {
			continue
		}
		text := event.Choices[0].Delta.Content
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
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading completion stream: %w", err)
	}
	if !emitted {
		return fmt.Errorf("chat completions: empty response")
	}

	select {
	case out <- repositories.ResponseChunk{Final: true}:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
