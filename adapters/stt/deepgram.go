package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rakhadane/suara/domain/repositories"
)

const deepgramListenURL = "wss://api.deepgram.com/v1/listen"

// DeepgramSpeechToText implements SpeechToText over the Deepgram listen
// websocket. Each utterance opens a fresh connection, streams the audio,
// and reads transcription messages until the server closes the stream.
type DeepgramSpeechToText struct {
	apiKey string
	model  string
	logger *zap.Logger
}

func NewDeepgramSpeechToText(apiKey string, logger *zap.Logger) *DeepgramSpeechToText {
	return &DeepgramSpeechToText{
		apiKey: apiKey,
		model:  "nova-3",
		logger: logger,
	}
}

func (d *DeepgramSpeechToText) StreamTranscription(ctx context.Context, audio []byte, config repositories.AudioConfig) (<-chan repositories.TranscriptChunk, <-chan error) {
	out := make(chan repositories.TranscriptChunk)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		if err := d.transcribe(ctx, audio, config, out); err != nil {
			errs <- err
		}
	}()

	return out, errs
}

func (d *DeepgramSpeechToText) transcribe(ctx context.Context, audio []byte, config repositories.AudioConfig, out chan<- repositories.TranscriptChunk) error {
	if len(audio) == 0 {
		return fmt.Errorf("no audio data received")
	}

	conn, err := d.dial(ctx, config)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}

	// Finals arrive segment by segment; the accumulated text is emitted
	// as the final chunk when the server confirms the speech ended.
	var accumulated string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return d.flush(ctx, accumulated, out)
			}
			return fmt.Errorf("failed to read deepgram websocket message: %w", err)
		}
		if msgType == websocket.BinaryMessage {
			continue
		}

		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &envelope); err != nil {
			d.logger.Warn("Unparseable deepgram message dropped", zap.Error(err))
			continue
		}
		if api.TypeResponse(envelope.Type) != api.TypeMessageResponse {
			continue
		}

		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			d.logger.Warn("Unparseable deepgram transcript dropped", zap.Error(err))
			continue
		}
		if len(msgResp.Channel.Alternatives) == 0 {
			continue
		}

		transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		if transcript == "" {
			continue
		}

		if !msgResp.IsFinal {
			chunk := repositories.TranscriptChunk{Text: transcript}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if accumulated != "" {
			accumulated += " "
		}
		accumulated += transcript

		if msgResp.SpeechFinal {
			return d.flush(ctx, accumulated, out)
		}
	}
}

func (d *DeepgramSpeechToText) flush(ctx context.Context, accumulated string, out chan<- repositories.TranscriptChunk) error {
	if accumulated == "" {
		return nil
	}
	select {
	case out <- repositories.TranscriptChunk{Text: accumulated, Final: true}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *DeepgramSpeechToText) dial(ctx context.Context, config repositories.AudioConfig) (*websocket.Conn, error) {
	if d.apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	listenURL, _ := url.Parse(deepgramListenURL)
	queryParams := listenURL.Query()
	queryParams.Set("encoding", deepgramEncoding(config.Encoding))
	queryParams.Set("sample_rate", strconv.Itoa(config.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", d.model)
	queryParams.Set("language", config.Language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("endpointing", "300")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + d.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

func deepgramEncoding(encoding string) string {
	switch encoding {
	case "LINEAR16", "WAV":
		return "linear16"
	case "MULAW":
		return "mulaw"
	case "FLAC":
		return "flac"
	case "OGG_OPUS", "WEBM_OPUS":
		return "opus"
	default:
		return "linear16"
	}
}
