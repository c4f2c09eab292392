package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "")
	t.Setenv("STT_PROVIDER", "")
	t.Setenv("AUDIO_SAMPLE_RATE", "")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.STTProvider != ProviderMock {
		t.Errorf("STTProvider = %q", cfg.STTProvider)
	}
	if cfg.SampleRate != 16000 || cfg.Encoding != "LINEAR16" || cfg.Language != "en-US" {
		t.Errorf("audio defaults = %d %q %q", cfg.SampleRate, cfg.Encoding, cfg.Language)
	}
	if cfg.ProviderTimeout != 30*time.Second {
		t.Errorf("ProviderTimeout = %v", cfg.ProviderTimeout)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without JWT_SECRET")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("STT_PROVIDER", ProviderDeepgram)
	t.Setenv("AUDIO_SAMPLE_RATE", "24000")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.STTProvider != ProviderDeepgram {
		t.Errorf("STTProvider = %q", cfg.STTProvider)
	}
	if cfg.SampleRate != 24000 {
		t.Errorf("SampleRate = %d", cfg.SampleRate)
	}
	if cfg.ProviderTimeout != 10*time.Second {
		t.Errorf("ProviderTimeout = %v", cfg.ProviderTimeout)
	}
}

func TestLoadRejectsBadSampleRate(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("AUDIO_SAMPLE_RATE", "-1")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a negative sample rate")
	}
}
