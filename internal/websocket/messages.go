package websocket

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/rakhadane/suara/domain"
)

// Inbound control message types.
const (
	messageTypeStreamStart = "voice_audio_stream_start"
	messageTypeAudioChunk  = "voice_audio_chunk"
	messageTypeStreamEnd   = "voice_audio_stream_end"
	messageTypeInterrupt   = "interrupt"
	messageTypeDisconnect  = "disconnect"
)

const (
	// maxEncodedAudioSize is the base64 payload size above which one
	// audio event is split into ordered chunk messages.
	maxEncodedAudioSize = 1024 * 1024

	// audioChunkSize is the base64 chunk size used when splitting.
	audioChunkSize = 32 * 1024
)

// inboundMessage is the envelope for all client-to-server messages.
type inboundMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio,omitempty"` // base64, voice_audio_chunk only
}

type modeChangeMessage struct {
	Type string      `json:"type"`
	Mode domain.Mode `json:"mode"`
}

type transcriptMessage struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

type agentTextMessage struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

type agentAudioMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
	Final bool   `json:"final"`
}

// agentAudioChunkMessage is one ordered slice of an oversized audio
// payload. Final is set only on the terminal chunk of a Final event.
type agentAudioChunkMessage struct {
	Type        string `json:"type"`
	Audio       string `json:"audio"`
	Final       bool   `json:"final"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// encodeEvent serializes one pipeline or session event into wire
// payloads. Audio payloads above maxEncodedAudioSize are split into
// ordered chunk messages.
func encodeEvent(ev domain.Event) ([][]byte, error) {
	switch e := ev.(type) {
	case domain.ModeChangeEvent:
		return marshalOne(modeChangeMessage{Type: "mode_change", Mode: e.Mode})

	case domain.TranscriptEvent:
		return marshalOne(transcriptMessage{Type: "transcript", Text: e.Text, Final: e.Final})

	case domain.AgentTextEvent:
		return marshalOne(agentTextMessage{Type: "agent_text", Text: e.Text, Final: e.Final})

	case domain.ErrorEvent:
		return marshalOne(errorMessage{Type: "error", Message: e.Message})

	case domain.AgentAudioEvent:
		encoded := base64.StdEncoding.EncodeToString(e.Audio)
		if len(encoded) <= maxEncodedAudioSize {
			return marshalOne(agentAudioMessage{Type: "agent_audio", Audio: encoded, Final: e.Final})
		}
		return marshalAudioChunks(encoded, e.Final)

	default:
		return nil, fmt.Errorf("unknown event type %T", ev)
	}
}

func marshalOne(msg interface{}) ([][]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return [][]byte{payload}, nil
}

func marshalAudioChunks(encoded string, final bool) ([][]byte, error) {
	totalChunks := (len(encoded) + audioChunkSize - 1) / audioChunkSize
	payloads := make([][]byte, 0, totalChunks)

	for i := 0; i < totalChunks; i++ {
		start := i * audioChunkSize
		end := start + audioChunkSize
		if end > len(encoded) {
			end = len(encoded)
		}
		last := i == totalChunks-1

		payload, err := json.Marshal(agentAudioChunkMessage{
			Type:        "agent_audio",
			Audio:       encoded[start:end],
			Final:       last && final,
			ChunkIndex:  i,
			TotalChunks: totalChunks,
		})
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}
