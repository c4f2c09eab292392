package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rakhadane/suara/domain"
	"github.com/rakhadane/suara/domain/repositories"
	"github.com/rakhadane/suara/internal/chunk"
)

const defaultProviderTimeout = 30 * time.Second

// Pipeline orchestrates one conversational turn: audio in, transcript,
// streamed reply text, and sentence-by-sentence synthesized audio out.
// Synthesis of sentence k starts before the language model has produced
// sentence k+1, which is what bounds end-to-end latency.
//
// A Pipeline belongs to one session. Each ProcessTurn call is a fresh,
// non-restartable run; the session guarantees at most one run is alive
// at a time.
type Pipeline struct {
	stt    repositories.SpeechToText
	llm    repositories.LanguageModel
	tts    repositories.SpeechSynthesizer
	logger *zap.Logger

	audioConfig     repositories.AudioConfig
	providerTimeout time.Duration

	interrupted atomic.Bool

	mu        sync.Mutex
	ttsCancel context.CancelFunc
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithAudioConfig sets the recognition parameters passed to the STT provider.
func WithAudioConfig(config repositories.AudioConfig) PipelineOption {
	return func(p *Pipeline) { p.audioConfig = config }
}

// WithProviderTimeout bounds each STT, LLM and TTS call so a stalled
// backend cannot block a session indefinitely.
func WithProviderTimeout(timeout time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if timeout > 0 {
			p.providerTimeout = timeout
		}
	}
}

// NewPipeline creates a pipeline over the three provider capabilities.
func NewPipeline(
	stt repositories.SpeechToText,
	llm repositories.LanguageModel,
	tts repositories.SpeechSynthesizer,
	logger *zap.Logger,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		stt:    stt,
		llm:    llm,
		tts:    tts,
		logger: logger,
		audioConfig: repositories.AudioConfig{
			SampleRate: 16000,
			Encoding:   "LINEAR16",
			Language:   "en-US",
		},
		providerTimeout: defaultProviderTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interrupt stops the current run: the interruption flag is checked
// before every emission, and any in-flight synthesis call is cancelled
// so the provider abandons the work rather than finishing it unheard.
func (p *Pipeline) Interrupt() {
	p.interrupted.Store(true)

	p.mu.Lock()
	cancel := p.ttsCancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// ProcessTurn runs one complete turn over the given audio. Events are
// delivered on the returned channel in production order; the channel
// closes when the turn ends. The error channel carries at most one
// error: an STT or LLM failure that aborted the turn. Per-sentence
// synthesis failures are logged and skipped, never surfaced here.
func (p *Pipeline) ProcessTurn(ctx context.Context, audio []byte) (<-chan domain.Event, <-chan error) {
	events := make(chan domain.Event)
	errc := make(chan error, 1)

	p.interrupted.Store(false)

	go func() {
		defer close(events)
		defer close(errc)

		if err := p.run(ctx, audio, events); err != nil {
			errc <- err
		}
	}()

	return events, errc
}

func (p *Pipeline) run(ctx context.Context, audio []byte, events chan<- domain.Event) error {
	transcript, err := p.transcribe(ctx, audio, events)
	if err != nil {
		return err
	}
	if strings.TrimSpace(transcript) == "" || p.interrupted.Load() {
		p.logger.Info("No transcript produced, ending turn")
		return nil
	}
	return p.respond(ctx, transcript, events)
}

// transcribe consumes the STT stream until a final transcript arrives
// and emits it. An empty result means no speech was detected.
func (p *Pipeline) transcribe(ctx context.Context, audio []byte, events chan<- domain.Event) (string, error) {
	sttCtx, cancel := context.WithTimeout(ctx, p.providerTimeout)
	defer cancel()

	chunks, errs := p.stt.StreamTranscription(sttCtx, audio, p.audioConfig)
	for tc := range chunks {
		if p.interrupted.Load() {
			return "", nil
		}
		if tc.Final && strings.TrimSpace(tc.Text) != "" {
			p.logger.Info("Transcript received", zap.String("text", tc.Text))
			if !p.emit(ctx, events, domain.TranscriptEvent{Text: tc.Text, Final: true}) {
				return "", nil
			}
			return tc.Text, nil
		}
	}

	if err := <-errs; err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}
	return "", nil
}

// respond streams reply text from the language model, emitting each
// chunk immediately while scanning the accumulated buffer for completed
// sentences to hand to synthesis.
func (p *Pipeline) respond(ctx context.Context, transcript string, events chan<- domain.Event) error {
	llmCtx, cancel := context.WithTimeout(ctx, p.providerTimeout)
	defer cancel()

	chunks, errs := p.llm.StreamResponse(llmCtx, transcript)

	buffer := ""
	final := false

	for rc := range chunks {
		if p.interrupted.Load() {
			return nil
		}
		if !p.emit(ctx, events, domain.AgentTextEvent{Text: rc.Text, Final: rc.Final}) {
			return nil
		}
		buffer += rc.Text

		for {
			sentence, rest, ok := chunk.NextSentence(buffer)
			if !ok {
				break
			}
			buffer = rest
			if sentence == "" {
				continue
			}
			p.speakSentence(ctx, sentence, events)
			if p.interrupted.Load() {
				return nil
			}
		}

		if rc.Final {
			final = true
			break
		}
	}

	if !final {
		if err := <-errs; err != nil {
			return fmt.Errorf("language model failed: %w", err)
		}
	}

	// Flush the trailing partial sentence left after the model finished.
	if tail := strings.TrimSpace(buffer); tail != "" && !p.interrupted.Load() {
		p.speakSentence(ctx, tail, events)
	}
	return nil
}

// speakSentence synthesizes one sentence and emits its audio. A failure
// here is scoped to the sentence: it is logged and the turn moves on.
func (p *Pipeline) speakSentence(ctx context.Context, sentence string, events chan<- domain.Event) {
	if err := p.speak(ctx, sentence, events); err != nil {
		p.logger.Warn("Synthesis failed, skipping sentence",
			zap.String("sentence", sentence),
			zap.Error(err))
	}
}

func (p *Pipeline) speak(ctx context.Context, sentence string, events chan<- domain.Event) error {
	ttsCtx, cancel := context.WithTimeout(ctx, p.providerTimeout)
	p.mu.Lock()
	p.ttsCancel = cancel
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.ttsCancel = nil
		p.mu.Unlock()
		cancel()
	}()

	chunks, errs := p.tts.StreamSpeech(ttsCtx, sentence)
	for ac := range chunks {
		// Partially synthesized audio for an interrupted sentence is
		// discarded, never emitted.
		if p.interrupted.Load() {
			return nil
		}
		if !p.emit(ctx, events, domain.AgentAudioEvent{Audio: ac.Audio, Final: ac.Final}) {
			return nil
		}
	}
	return <-errs
}

func (p *Pipeline) emit(ctx context.Context, events chan<- domain.Event, ev domain.Event) bool {
	if p.interrupted.Load() {
		return false
	}
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
