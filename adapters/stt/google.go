package stt

import (
	"context"
	"fmt"
	"io"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/rakhadane/suara/domain/repositories"
)

// GoogleSpeechToText implements SpeechToText over Google Cloud
// Speech-to-Text streaming recognition.
type GoogleSpeechToText struct {
	logger *zap.Logger
}

func NewGoogleSpeechToText(logger *zap.Logger) *GoogleSpeechToText {
	return &GoogleSpeechToText{logger: logger}
}

// StreamTranscription sends the utterance to Google and relays
// recognition results as they arrive. Interim results are forwarded as
// non-final chunks; the best final alternative closes the stream.
func (g *GoogleSpeechToText) StreamTranscription(ctx context.Context, audio []byte, config repositories.AudioConfig) (<-chan repositories.TranscriptChunk, <-chan error) {
	out := make(chan repositories.TranscriptChunk)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		if err := g.transcribe(ctx, audio, config, out); err != nil {
			errs <- err
		}
	}()

	return out, errs
}

func (g *GoogleSpeechToText) transcribe(ctx context.Context, audio []byte, config repositories.AudioConfig, out chan<- repositories.TranscriptChunk) error {
	if len(audio) == 0 {
		return fmt.Errorf("no audio data received")
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create speech client: %w", err)
	}
	defer client.Close()

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		return fmt.Errorf("failed to create streaming recognize: %w", err)
	}

	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		stream.CloseSend()
		return err
	}

	// Send initial configuration
	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        encoding,
					SampleRateHertz: int32(config.SampleRate),
					LanguageCode:    config.Language,
				},
				InterimResults:  true,
				SingleUtterance: true,
			},
		},
	}); err != nil {
		stream.CloseSend()
		return fmt.Errorf("failed to send streaming config: %w", err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	}); err != nil {
		stream.CloseSend()
		return fmt.Errorf("failed to send audio data: %w", err)
	}

	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("failed to close send stream: %w", err)
	}

	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to receive response: %w", err)
		}

		for _, result := range resp.Results {
			if len(result.Alternatives) == 0 {
				continue
			}
			chunk := repositories.TranscriptChunk{
				Text:  result.Alternatives[0].Transcript,
				Final: result.IsFinal,
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return ctx.Err()
			}
			if chunk.Final {
				g.logger.Debug("Final transcript received", zap.Int("length", len(chunk.Text)))
				return nil
			}
		}
	}
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "AMR":
		return speechpb.RecognitionConfig_AMR, nil
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
