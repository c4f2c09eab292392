package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Provider selection values for STTProvider, LLMProvider and TTSProvider.
const (
	ProviderGoogle     = "google"
	ProviderDeepgram   = "deepgram"
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderElevenLabs = "elevenlabs"
	ProviderMock       = "mock"
)

// Config carries everything the server reads from the environment.
type Config struct {
	Port      string
	JWTSecret string
	APIKey    string

	STTProvider string
	LLMProvider string
	TTSProvider string

	DeepgramAPIKey string
	GeminiAPIKey   string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIEndpoint string

	SampleRate int
	Encoding   string
	Language   string

	ProviderTimeout time.Duration
}

// Load reads configuration from the environment, preferring a local
// .env file when present.
func Load() (*Config, error) {
	// A missing .env file is fine; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		APIKey:    os.Getenv("API_KEY"),

		STTProvider: getEnv("STT_PROVIDER", ProviderMock),
		LLMProvider: getEnv("LLM_PROVIDER", ProviderMock),
		TTSProvider: getEnv("TTS_PROVIDER", ProviderMock),

		DeepgramAPIKey: os.Getenv("DEEPGRAM_API_KEY"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIEndpoint: os.Getenv("OPENAI_ENDPOINT"),

		SampleRate: getEnvInt("AUDIO_SAMPLE_RATE", 16000),
		Encoding:   getEnv("AUDIO_ENCODING", "LINEAR16"),
		Language:   getEnv("AUDIO_LANGUAGE", "en-US"),

		ProviderTimeout: time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("AUDIO_SAMPLE_RATE must be positive, got %d", cfg.SampleRate)
	}
	if cfg.ProviderTimeout <= 0 {
		return nil, fmt.Errorf("PROVIDER_TIMEOUT_SECONDS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
