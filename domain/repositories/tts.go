package repositories

import "context"

// AudioChunk is one synthesized audio segment from a text-to-speech
// stream. Final marks a self-contained, independently playable segment.
type AudioChunk struct {
	Audio []byte
	Final bool
}

// SpeechSynthesizer abstracts text-to-speech services.
//
// StreamSpeech synthesizes one speakable text unit. Channel semantics
// match SpeechToText: buffered one-shot error channel, both channels
// closed when synthesis ends, ctx honored on every send.
type SpeechSynthesizer interface {
	StreamSpeech(ctx context.Context, text string) (<-chan AudioChunk, <-chan error)
}
