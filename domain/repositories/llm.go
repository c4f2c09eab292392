package repositories

import "context"

// ResponseChunk is one token chunk from a language model stream. The
// last chunk of a reply has Final set, possibly with empty Text.
type ResponseChunk struct {
	Text  string
	Final bool
}

// LanguageModel abstracts any chat/LLM provider.
//
// StreamResponse sends the user transcript to the model and streams the
// reply back chunk by chunk. Channel semantics match SpeechToText:
// buffered one-shot error channel, both channels closed when the stream
// ends, ctx honored on every send.
type LanguageModel interface {
	StreamResponse(ctx context.Context, transcript string) (<-chan ResponseChunk, <-chan error)
}
