package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rakhadane/suara/domain/repositories"
)

// MockLanguageModel is a placeholder implementation for reply generation
type MockLanguageModel struct{}

// NewMockLanguageModel creates a new mock language model
func NewMockLanguageModel() repositories.LanguageModel {
	return &MockLanguageModel{}
}

// StreamResponse implements repositories.LanguageModel
func (m *MockLanguageModel) StreamResponse(ctx context.Context, transcript string) (<-chan repositories.ResponseChunk, <-chan error) {
	out := make(chan repositories.ResponseChunk)
	errs := make(chan error, 1)

	response := fmt.Sprintf("Thanks for sharing! I heard you say '%s'. What else is on your mind?", transcript)

	go func() {
		defer close(out)
		defer close(errs)

		// Stream word by word to mimic token delivery.
		for _, word := range strings.Fields(response) {
			select {
			case out <- repositories.ResponseChunk{Text: word + " "}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case out <- repositories.ResponseChunk{Final: true}:
		case <-ctx.Done():
		}
	}()

	return out, errs
}
