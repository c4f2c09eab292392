package providers

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rakhadane/suara/adapters/llm"
	"github.com/rakhadane/suara/adapters/stt"
	"github.com/rakhadane/suara/adapters/tts"
	"github.com/rakhadane/suara/domain/repositories"
	"github.com/rakhadane/suara/internal/config"
)

// Set bundles the three provider capabilities a voice session needs.
type Set struct {
	STT repositories.SpeechToText
	LLM repositories.LanguageModel
	TTS repositories.SpeechSynthesizer
}

// Build constructs the providers named in the configuration. Unknown
// names are an error; the mock providers are selected explicitly.
func Build(cfg *config.Config, logger *zap.Logger) (*Set, error) {
	speechToText, err := buildSTT(cfg, logger)
	if err != nil {
		return nil, err
	}
	languageModel, err := buildLLM(cfg, logger)
	if err != nil {
		return nil, err
	}
	synthesizer, err := buildTTS(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Set{STT: speechToText, LLM: languageModel, TTS: synthesizer}, nil
}

func buildSTT(cfg *config.Config, logger *zap.Logger) (repositories.SpeechToText, error) {
	switch cfg.STTProvider {
	case config.ProviderGoogle:
		return stt.NewGoogleSpeechToText(logger), nil
	case config.ProviderDeepgram:
		if cfg.DeepgramAPIKey == "" {
			return nil, fmt.Errorf("DEEPGRAM_API_KEY is required for the deepgram provider")
		}
		return stt.NewDeepgramSpeechToText(cfg.DeepgramAPIKey, logger), nil
	case config.ProviderMock:
		logger.Warn("Using mock speech-to-text provider")
		return stt.NewMockSpeechToText(logger), nil
	default:
		return nil, fmt.Errorf("unknown STT provider %q", cfg.STTProvider)
	}
}

func buildLLM(cfg *config.Config, logger *zap.Logger) (repositories.LanguageModel, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return llm.NewGeminiLanguageModel(llm.GeminiConfig{APIKey: cfg.GeminiAPIKey}, logger)
	case config.ProviderOpenAI:
		return llm.NewOpenAILanguageModel(llm.OpenAIConfig{
			Endpoint: cfg.OpenAIEndpoint,
			APIKey:   cfg.OpenAIAPIKey,
			Model:    cfg.OpenAIModel,
		}, logger)
	case config.ProviderMock:
		logger.Warn("Using mock language model provider")
		return llm.NewMockLanguageModel(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

func buildTTS(cfg *config.Config, logger *zap.Logger) (repositories.SpeechSynthesizer, error) {
	switch cfg.TTSProvider {
	case config.ProviderElevenLabs:
		return tts.NewElevenLabsTTS(tts.NewElevenLabsConfigFromEnv(), logger)
	case config.ProviderMock:
		logger.Warn("Using mock text-to-speech provider")
		return tts.NewMockSpeechSynthesizer(logger), nil
	default:
		return nil, fmt.Errorf("unknown TTS provider %q", cfg.TTSProvider)
	}
}
