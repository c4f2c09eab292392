// Command probe is a small client that exercises a running server end
// to end: it obtains a token, opens a voice session, streams a
// recording, and prints the events that come back.
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type tokenRequest struct {
	APIKey   string `json:"api_key"`
	ClientID string `json:"client_id"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientID  string    `json:"client_id"`
}

type outboundMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio,omitempty"`
}

func main() {
	host := flag.String("host", "localhost:8080", "server host")
	apiKey := flag.String("api-key", os.Getenv("API_KEY"), "shared API key")
	audioPath := flag.String("audio", "", "path to a raw PCM recording; synthetic audio is used when empty")
	flag.Parse()

	token, err := fetchToken(*host, *apiKey)
	if err != nil {
		log.Fatal("Failed to obtain token: ", err)
	}
	log.Println("Token obtained")

	u := url.URL{Scheme: "ws", Host: *host, Path: "/ws"}
	headers := http.Header{}
	headers.Add("Authorization", "Bearer "+token)

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), headers)
	if err != nil {
		log.Fatal("dial: ", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go readEvents(conn, done)

	audio, err := loadAudio(*audioPath)
	if err != nil {
		log.Fatal("Failed to load audio: ", err)
	}

	send(conn, outboundMessage{Type: "voice_audio_stream_start"})
	for _, piece := range split(audio, 8*1024) {
		send(conn, outboundMessage{
			Type:  "voice_audio_chunk",
			Audio: base64.StdEncoding.EncodeToString(piece),
		})
		time.Sleep(20 * time.Millisecond)
	}
	send(conn, outboundMessage{Type: "voice_audio_stream_end"})

	// Give the turn time to play out, then hang up.
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		log.Println("Timed out waiting for the turn to finish")
	}
	send(conn, outboundMessage{Type: "disconnect"})
}

func fetchToken(host, apiKey string) (string, error) {
	body, _ := json.Marshal(tokenRequest{APIKey: apiKey, ClientID: "probe"})
	resp, err := http.Post("http://"+host+"/api/v1/auth/token", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, raw)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	return tr.Token, nil
}

func readEvents(conn *websocket.Conn, done chan<- struct{}) {
	audioBytes := 0
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Println("read: ", err)
			close(done)
			return
		}

		var event struct {
			Type  string `json:"type"`
			Mode  string `json:"mode,omitempty"`
			Text  string `json:"text,omitempty"`
			Audio string `json:"audio,omitempty"`
			Final bool   `json:"final,omitempty"`
		}
		if err := json.Unmarshal(msg, &event); err != nil {
			log.Println("unmarshal: ", err)
			continue
		}

		switch event.Type {
		case "mode_change":
			log.Printf("mode: %s", event.Mode)
			// The session returns to listening once the agent is done
			// speaking; that ends this probe's single turn.
			if event.Mode == "listening" && audioBytes > 0 {
				close(done)
				return
			}
		case "transcript":
			log.Printf("transcript: %q", event.Text)
		case "agent_text":
			if event.Text != "" {
				fmt.Print(event.Text)
			}
			if event.Final {
				fmt.Println()
			}
		case "agent_audio":
			decoded, _ := base64.StdEncoding.DecodeString(event.Audio)
			audioBytes += len(decoded)
			log.Printf("audio: %d bytes so far", audioBytes)
		case "error":
			log.Printf("error event: %s", msg)
		}
	}
}

func loadAudio(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	// Synthetic PCM: enough bytes for the mock providers to treat it
	// as a real utterance.
	audio := make([]byte, 12*1024)
	for i := range audio {
		audio[i] = byte(i % 256)
	}
	return audio, nil
}

func split(data []byte, size int) [][]byte {
	var pieces [][]byte
	for len(data) > size {
		pieces = append(pieces, data[:size])
		data = data[size:]
	}
	if len(data) > 0 {
		pieces = append(pieces, data)
	}
	return pieces
}

func send(conn *websocket.Conn, msg outboundMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Fatal("write: ", err)
	}
}
