package api

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rakhadane/suara/domain"
	"github.com/rakhadane/suara/domain/repositories"
	"github.com/rakhadane/suara/internal/auth"
	"github.com/rakhadane/suara/internal/websocket"
	"github.com/rakhadane/suara/usecase"
)

// Server wires the HTTP surface: token issuance, one-shot voice
// endpoints, and the websocket upgrade.
type Server struct {
	hub           *websocket.Hub
	stt           repositories.SpeechToText
	llm           repositories.LanguageModel
	tts           repositories.SpeechSynthesizer
	authenticator *auth.Authenticator
	apiKey        string
	audioConfig   repositories.AudioConfig
	turnTimeout   time.Duration
	logger        *zap.Logger
}

type ServerOptions struct {
	Hub           *websocket.Hub
	STT           repositories.SpeechToText
	LLM           repositories.LanguageModel
	TTS           repositories.SpeechSynthesizer
	Authenticator *auth.Authenticator
	APIKey        string
	AudioConfig   repositories.AudioConfig
	TurnTimeout   time.Duration
}

func NewServer(opts ServerOptions, logger *zap.Logger) *Server {
	turnTimeout := opts.TurnTimeout
	if turnTimeout == 0 {
		turnTimeout = 60 * time.Second
	}
	return &Server{
		hub:           opts.Hub,
		stt:           opts.STT,
		llm:           opts.LLM,
		tts:           opts.TTS,
		authenticator: opts.Authenticator,
		apiKey:        opts.APIKey,
		audioConfig:   opts.AudioConfig,
		turnTimeout:   turnTimeout,
		logger:        logger,
	}
}

// InitRoutes initializes all API routes
func (s *Server) InitRoutes(e *echo.Echo) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "suara-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/auth/token", s.issueToken)
	v1.POST("/stt", s.transcribe)
	v1.POST("/tts", s.synthesize)
	v1.POST("/voice", s.voiceTurn)
	v1.GET("/voices", s.listVoices)

	// WebSocket endpoint with JWT validation
	e.GET("/ws", s.websocketWithAuth)
}

// issueToken exchanges the shared API key for a short-lived client JWT.
func (s *Server) issueToken(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Error("Failed to bind token request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if s.apiKey == "" || req.APIKey != s.apiKey {
		s.logger.Warn("Token request rejected: invalid API key")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid API key",
		})
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	token, expiresAt, err := s.authenticator.GenerateClientToken(clientID)
	if err != nil {
		s.logger.Error("Failed to generate client token",
			zap.String("client_id", clientID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		ClientID:  clientID,
	})
}

// transcribe runs one-shot speech recognition on an uploaded recording.
func (s *Server) transcribe(c echo.Context) error {
	audio, err := s.readAudio(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_audio",
			Message: err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.turnTimeout)
	defer cancel()

	chunks, errs := s.stt.StreamTranscription(ctx, audio, s.audioConfig)
	transcript := ""
	for tc := range chunks {
		if tc.Final {
			transcript = tc.Text
		}
	}
	if err := <-errs; err != nil {
		s.logger.Error("Transcription failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "transcription_failed",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, TranscriptResponse{Transcript: transcript})
}

// synthesize runs one-shot speech synthesis and returns the raw audio.
func (s *Server) synthesize(c echo.Context) error {
	var req SynthesisRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Text is required",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.turnTimeout)
	defer cancel()

	chunks, errs := s.tts.StreamSpeech(ctx, req.Text)
	var audio []byte
	for ac := range chunks {
		audio = append(audio, ac.Audio...)
	}
	if err := <-errs; err != nil {
		s.logger.Error("Synthesis failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "synthesis_failed",
			Message: err.Error(),
		})
	}

	return c.Blob(http.StatusOK, "audio/pcm", audio)
}

// voiceTurn runs one complete turn and returns the collected result.
func (s *Server) voiceTurn(c echo.Context) error {
	var req VoiceTurnRequest
	if err := c.Bind(&req); err != nil || req.Audio == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Base64 audio is required",
		})
	}

	audio, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_audio",
			Message: "Audio must be valid base64",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.turnTimeout)
	defer cancel()

	pipeline := usecase.NewPipeline(s.stt, s.llm, s.tts, s.logger,
		usecase.WithAudioConfig(s.audioConfig))
	events, errs := pipeline.ProcessTurn(ctx, audio)

	var resp VoiceTurnResponse
	var replyParts strings.Builder
	var audioOut []byte
	for ev := range events {
		switch e := ev.(type) {
		case domain.TranscriptEvent:
			resp.Transcript = e.Text
		case domain.AgentTextEvent:
			replyParts.WriteString(e.Text)
		case domain.AgentAudioEvent:
			audioOut = append(audioOut, e.Audio...)
		}
	}
	if err := <-errs; err != nil {
		s.logger.Error("Voice turn failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "turn_failed",
			Message: err.Error(),
		})
	}

	resp.Reply = strings.TrimSpace(replyParts.String())
	resp.Audio = base64.StdEncoding.EncodeToString(audioOut)
	return c.JSON(http.StatusOK, resp)
}

// voiceLister is satisfied by synthesizers that can enumerate voices.
type voiceLister interface {
	GetAvailableVoices(ctx context.Context) ([]map[string]interface{}, error)
}

func (s *Server) listVoices(c echo.Context) error {
	lister, ok := s.tts.(voiceLister)
	if !ok {
		return c.JSON(http.StatusNotImplemented, ErrorResponse{
			Error:   "not_supported",
			Message: "The configured synthesizer does not list voices",
		})
	}

	voices, err := lister.GetAvailableVoices(c.Request().Context())
	if err != nil {
		s.logger.Error("Failed to list voices", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "voices_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"voices": voices})
}

// readAudio accepts either a multipart "audio" file or a raw body.
func (s *Server) readAudio(c echo.Context) ([]byte, error) {
	if file, err := c.FormFile("audio"); err == nil {
		src, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return io.ReadAll(src)
	}
	return io.ReadAll(c.Request().Body)
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func (s *Server) websocketWithAuth(c echo.Context) error {
	// Extract JWT token from Authorization header only
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}

	if token == "" {
		s.logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header",
		})
	}

	claims, err := s.authenticator.ValidateToken(token)
	if err != nil {
		s.logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	s.logger.Info("WebSocket connection authenticated",
		zap.String("client_id", claims.ClientID))

	return websocket.ServeSession(s.hub, c, s.logger)
}
