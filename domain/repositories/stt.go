package repositories

import "context"

// TranscriptChunk is one recognition result from a speech-to-text stream.
type TranscriptChunk struct {
	Text  string
	Final bool
}

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// SpeechToText abstracts speech recognition services.
//
// StreamTranscription transcribes one complete utterance. Results arrive
// on the chunk channel; at least one Final chunk is expected per spoken
// utterance, or the channel closes empty when no speech was detected.
// The error channel is buffered, carries at most one error and is closed
// together with the chunk channel. Implementations must honor ctx
// cancellation on every send.
type SpeechToText interface {
	StreamTranscription(ctx context.Context, audio []byte, config AudioConfig) (<-chan TranscriptChunk, <-chan error)
}
