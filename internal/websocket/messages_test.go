package websocket

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rakhadane/suara/domain"
)

func TestEncodeEventModeChange(t *testing.T) {
	payloads, err := encodeEvent(domain.ModeChangeEvent{Mode: domain.ModeSpeaking})
	if err != nil {
		t.Fatalf("encodeEvent: %v", err)
	}
	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(payloads))
	}

	var msg modeChangeMessage
	if err := json.Unmarshal(payloads[0], &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "mode_change" || msg.Mode != domain.ModeSpeaking {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestEncodeEventTranscript(t *testing.T) {
	payloads, err := encodeEvent(domain.TranscriptEvent{Text: "hello there", Final: true})
	if err != nil {
		t.Fatalf("encodeEvent: %v", err)
	}

	var msg transcriptMessage
	if err := json.Unmarshal(payloads[0], &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "transcript" || msg.Text != "hello there" || !msg.Final {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestEncodeEventSmallAudio(t *testing.T) {
	audio := []byte("pcm audio bytes")
	payloads, err := encodeEvent(domain.AgentAudioEvent{Audio: audio, Final: true})
	if err != nil {
		t.Fatalf("encodeEvent: %v", err)
	}
	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(payloads))
	}

	var msg agentAudioMessage
	if err := json.Unmarshal(payloads[0], &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(msg.Audio)
	if err != nil {
		t.Fatalf("decode audio: %v", err)
	}
	if string(decoded) != string(audio) {
		t.Errorf("audio round trip mismatch")
	}
	if !msg.Final {
		t.Errorf("expected final audio message")
	}
}

func TestEncodeEventOversizedAudioSplits(t *testing.T) {
	// 900KB of raw audio encodes to 1.2MB of base64, past the split
	// threshold.
	audio := []byte(strings.Repeat("x", 900*1024))
	payloads, err := encodeEvent(domain.AgentAudioEvent{Audio: audio, Final: true})
	if err != nil {
		t.Fatalf("encodeEvent: %v", err)
	}
	if len(payloads) < 2 {
		t.Fatalf("expected split into multiple chunks, got %d", len(payloads))
	}

	var encoded strings.Builder
	for i, payload := range payloads {
		var msg agentAudioChunkMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("unmarshal chunk %d: %v", i, err)
		}
		if msg.Type != "agent_audio" {
			t.Errorf("chunk %d: unexpected type %q", i, msg.Type)
		}
		if msg.ChunkIndex != i {
			t.Errorf("chunk %d: got index %d", i, msg.ChunkIndex)
		}
		if msg.TotalChunks != len(payloads) {
			t.Errorf("chunk %d: got total %d, want %d", i, msg.TotalChunks, len(payloads))
		}
		wantFinal := i == len(payloads)-1
		if msg.Final != wantFinal {
			t.Errorf("chunk %d: final = %v, want %v", i, msg.Final, wantFinal)
		}
		encoded.WriteString(msg.Audio)
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded.String())
	if err != nil {
		t.Fatalf("decode reassembled audio: %v", err)
	}
	if len(decoded) != len(audio) {
		t.Fatalf("reassembled %d bytes, want %d", len(decoded), len(audio))
	}
}

func TestEncodeEventOversizedAudioNonFinal(t *testing.T) {
	audio := []byte(strings.Repeat("x", 900*1024))
	payloads, err := encodeEvent(domain.AgentAudioEvent{Audio: audio, Final: false})
	if err != nil {
		t.Fatalf("encodeEvent: %v", err)
	}

	var last agentAudioChunkMessage
	if err := json.Unmarshal(payloads[len(payloads)-1], &last); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if last.Final {
		t.Errorf("terminal chunk of a non-final event must not be final")
	}
}

func TestEncodeEventError(t *testing.T) {
	payloads, err := encodeEvent(domain.ErrorEvent{Message: "synthesis failed"})
	if err != nil {
		t.Fatalf("encodeEvent: %v", err)
	}

	var msg errorMessage
	if err := json.Unmarshal(payloads[0], &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "error" || msg.Message != "synthesis failed" {
		t.Errorf("unexpected message: %+v", msg)
	}
}
