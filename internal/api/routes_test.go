package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rakhadane/suara/adapters/llm"
	"github.com/rakhadane/suara/adapters/stt"
	"github.com/rakhadane/suara/adapters/tts"
	"github.com/rakhadane/suara/internal/auth"
)

func newTestServer(t *testing.T) (*echo.Echo, *Server) {
	t.Helper()
	logger := zap.NewNop()
	authenticator, err := auth.NewAuthenticator("test-secret")
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	server := NewServer(ServerOptions{
		STT:           stt.NewMockSpeechToText(logger),
		LLM:           llm.NewMockLanguageModel(),
		TTS:           tts.NewMockSpeechSynthesizer(logger),
		Authenticator: authenticator,
		APIKey:        "test-api-key",
	}, logger)

	e := echo.New()
	server.InitRoutes(e)
	return e, server
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestIssueToken(t *testing.T) {
	e, _ := newTestServer(t)

	body, _ := json.Marshal(TokenRequest{APIKey: "test-api-key", ClientID: "c1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Token == "" || resp.ClientID != "c1" {
		t.Errorf("response = %+v", resp)
	}
}

func TestIssueTokenRejectsBadKey(t *testing.T) {
	e, _ := newTestServer(t)

	body, _ := json.Marshal(TokenRequest{APIKey: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestTranscribeRawBody(t *testing.T) {
	e, _ := newTestServer(t)

	audio := bytes.Repeat([]byte{1}, 2000)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stt", bytes.NewReader(audio))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp TranscriptResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Transcript == "" {
		t.Error("expected a transcript")
	}
}

func TestSynthesizeReturnsAudio(t *testing.T) {
	e, _ := newTestServer(t)

	body, _ := json.Marshal(SynthesisRequest{Text: "Hello there."})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tts", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected audio bytes")
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "audio/") {
		t.Errorf("content type = %q", ct)
	}
}

func TestSynthesizeRequiresText(t *testing.T) {
	e, _ := newTestServer(t)

	body, _ := json.Marshal(SynthesisRequest{Text: "  "})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tts", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestVoiceTurn(t *testing.T) {
	e, _ := newTestServer(t)

	audio := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 2000))
	body, _ := json.Marshal(VoiceTurnRequest{Audio: audio})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp VoiceTurnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Transcript == "" || resp.Reply == "" || resp.Audio == "" {
		t.Errorf("incomplete turn result: %+v", resp)
	}
	if _, err := base64.StdEncoding.DecodeString(resp.Audio); err != nil {
		t.Errorf("audio is not valid base64: %v", err)
	}
}

func TestVoiceTurnRejectsBadBase64(t *testing.T) {
	e, _ := newTestServer(t)

	body, _ := json.Marshal(VoiceTurnRequest{Audio: "!!not base64!!"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListVoicesNotSupportedByMock(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/voices", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestWebsocketRequiresToken(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestWebsocketRejectsInvalidToken(t *testing.T) {
	e, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}
