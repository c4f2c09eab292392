package tts

import (
	"context"

	"go.uber.org/zap"

	"github.com/rakhadane/suara/domain/repositories"
)

// MockSpeechSynthesizer is a placeholder implementation for text-to-speech
type MockSpeechSynthesizer struct {
	logger *zap.Logger
}

// NewMockSpeechSynthesizer creates a new mock text-to-speech service
func NewMockSpeechSynthesizer(logger *zap.Logger) repositories.SpeechSynthesizer {
	return &MockSpeechSynthesizer{
		logger: logger,
	}
}

// StreamSpeech implements repositories.SpeechSynthesizer
func (m *MockSpeechSynthesizer) StreamSpeech(ctx context.Context, text string) (<-chan repositories.AudioChunk, <-chan error) {
	m.logger.Info("Processing text-to-speech", zap.String("text", text))

	out := make(chan repositories.AudioChunk, 1)
	errs := make(chan error, 1)

	// Mock audio data - generate based on text length
	audio := make([]byte, len(text)*100)
	for i := range audio {
		audio[i] = byte(i % 256)
	}

	go func() {
		defer close(out)
		defer close(errs)
		select {
		case out <- repositories.AudioChunk{Audio: audio, Final: true}:
		case <-ctx.Done():
		}
	}()

	return out, errs
}
