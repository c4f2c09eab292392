package api

import "time"

// TokenRequest represents the request payload for client authentication
type TokenRequest struct {
	APIKey   string `json:"api_key" validate:"required"`
	ClientID string `json:"client_id"`
}

// TokenResponse represents the response payload for client authentication
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientID  string    `json:"client_id"`
}

// TranscriptResponse is the result of a one-shot transcription
type TranscriptResponse struct {
	Transcript string `json:"transcript"`
}

// SynthesisRequest is the payload for one-shot speech synthesis
type SynthesisRequest struct {
	Text string `json:"text" validate:"required"`
}

// VoiceTurnRequest carries one full turn of base64 audio
type VoiceTurnRequest struct {
	Audio string `json:"audio" validate:"required"`
}

// VoiceTurnResponse is the complete result of one voice turn
type VoiceTurnResponse struct {
	Transcript string `json:"transcript"`
	Reply      string `json:"reply"`
	Audio      string `json:"audio"` // base64
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
