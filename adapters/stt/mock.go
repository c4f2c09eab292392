package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/rakhadane/suara/domain/repositories"
)

// MockSpeechToText is a placeholder implementation for speech recognition
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) repositories.SpeechToText {
	return &MockSpeechToText{
		logger: logger,
	}
}

// StreamTranscription implements repositories.SpeechToText
func (s *MockSpeechToText) StreamTranscription(ctx context.Context, audio []byte, config repositories.AudioConfig) (<-chan repositories.TranscriptChunk, <-chan error) {
	s.logger.Info("Processing speech-to-text",
		zap.Int("audioSize", len(audio)),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding))

	out := make(chan repositories.TranscriptChunk, 1)
	errs := make(chan error, 1)

	// Mock transcription based on audio size
	var transcript string
	switch {
	case len(audio) > 10000:
		transcript = "Hello there, how are you? I would like to hear about your day."
	case len(audio) > 5000:
		transcript = "Thank you for listening."
	case len(audio) > 1000:
		transcript = "Hello!"
	case len(audio) > 0:
		transcript = "Hi"
	}

	go func() {
		defer close(out)
		defer close(errs)
		if transcript == "" {
			return
		}
		select {
		case out <- repositories.TranscriptChunk{Text: transcript, Final: true}:
		case <-ctx.Done():
		}
	}()

	return out, errs
}
