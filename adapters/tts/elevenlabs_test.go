package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rakhadane/suara/domain/repositories"
)

func ttsServer(t *testing.T, audio []byte) (*httptest.Server, *[]string) {
	t.Helper()
	var texts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		var req ElevenLabsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		texts = append(texts, req.Text)
		w.Write(audio)
	}))
	return server, &texts
}

func newTestTTS(t *testing.T, baseURL string) *ElevenLabsTTS {
	t.Helper()
	tts, err := NewElevenLabsTTS(ElevenLabsConfig{
		APIKey:     "test-key",
		APIBaseURL: baseURL,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewElevenLabsTTS: %v", err)
	}
	return tts
}

func collectAudio(t *testing.T, tts *ElevenLabsTTS, text string) ([]repositories.AudioChunk, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	chunks, errs := tts.StreamSpeech(ctx, text)
	var collected []repositories.AudioChunk
	for ac := range chunks {
		collected = append(collected, ac)
	}
	return collected, <-errs
}

func TestStreamSpeechSingleUnit(t *testing.T) {
	server, texts := ttsServer(t, []byte("pcm audio data"))
	defer server.Close()

	chunks, err := collectAudio(t, newTestTTS(t, server.URL), "Hello there.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*texts) != 1 || (*texts)[0] != "Hello there." {
		t.Errorf("synthesized texts = %v", *texts)
	}
	if len(chunks) == 0 {
		t.Fatal("no audio chunks received")
	}

	var audio []byte
	for i, ac := range chunks {
		audio = append(audio, ac.Audio...)
		wantFinal := i == len(chunks)-1
		if ac.Final != wantFinal {
			t.Errorf("chunk %d: final = %v, want %v", i, ac.Final, wantFinal)
		}
	}
	if string(audio) != "pcm audio data" {
		t.Errorf("audio = %q", audio)
	}
}

func TestStreamSpeechSplitsLongText(t *testing.T) {
	server, texts := ttsServer(t, []byte("pcm"))
	defer server.Close()

	// Two sentences that together exceed the per-request cap.
	long := strings.Repeat("This sentence fills space. ", 12)
	chunks, err := collectAudio(t, newTestTTS(t, server.URL), long)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*texts) < 2 {
		t.Fatalf("expected multiple synthesis requests, got %d", len(*texts))
	}
	for _, text := range *texts {
		if len(text) > maxUnitLength {
			t.Errorf("request text exceeds cap: %d bytes", len(text))
		}
	}

	finals := 0
	for _, ac := range chunks {
		if ac.Final {
			finals++
		}
	}
	if finals != 1 {
		t.Errorf("expected exactly one final chunk, got %d", finals)
	}
	if !chunks[len(chunks)-1].Final {
		t.Error("terminal chunk must be final")
	}
}

func TestStreamSpeechEmptyText(t *testing.T) {
	server, _ := ttsServer(t, []byte("pcm"))
	defer server.Close()

	_, err := collectAudio(t, newTestTTS(t, server.URL), "   ")
	if err == nil {
		t.Fatal("expected an error for empty text")
	}
}

func TestStreamSpeechHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad voice", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	_, err := collectAudio(t, newTestTTS(t, server.URL), "Hello.")
	if err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("error should carry the status code, got %v", err)
	}
}

func TestValidateElevenLabsConfig(t *testing.T) {
	if err := ValidateElevenLabsConfig(ElevenLabsConfig{}); err == nil {
		t.Error("missing API key must be rejected")
	}
	if err := ValidateElevenLabsConfig(ElevenLabsConfig{APIKey: "k", Stability: 1.5}); err == nil {
		t.Error("out-of-range stability must be rejected")
	}
	if err := ValidateElevenLabsConfig(ElevenLabsConfig{APIKey: "k", Clarity: -0.1}); err == nil {
		t.Error("out-of-range clarity must be rejected")
	}
	if err := ValidateElevenLabsConfig(ElevenLabsConfig{APIKey: "k", ChunkSize: -1}); err == nil {
		t.Error("negative chunk size must be rejected")
	}
	if err := ValidateElevenLabsConfig(ElevenLabsConfig{APIKey: "k"}); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}
