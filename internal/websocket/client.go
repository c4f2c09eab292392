package websocket

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rakhadane/suara/domain"
	"github.com/rakhadane/suara/usecase"
)

const clientInitialMode = domain.ModeIdle

// WriteData is one outbound websocket frame.
type WriteData struct {
	// Type is the websocket message type, websocket.TextMessage or
	// websocket.BinaryMessage.
	Type    int
	Payload []byte
}

// Client owns one live voice session: it decodes inbound control and
// audio messages, accumulates the recording buffer, runs at most one
// background turn through the pipeline, and serializes outbound events
// in the order the pipeline produced them.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	sessionID string
	pipeline  *usecase.Pipeline
	logger    *zap.Logger

	// Session state. Mutated only under mu; the audio buffer is written
	// by the reading goroutine alone and handed off by copy to the turn.
	mu          sync.Mutex
	mode        domain.Mode
	audioBuffer bytes.Buffer
	isRecording bool
	turnRunning bool
	turnCancel  context.CancelFunc
	turnWG      sync.WaitGroup
}

func newClient(hub *Hub, conn *websocket.Conn, sessionID string, pipeline *usecase.Pipeline, logger *zap.Logger) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan WriteData, 256),
		sessionID: sessionID,
		pipeline:  pipeline,
		logger:    logger.With(zap.String("sessionID", sessionID)),
		mode:      clientInitialMode,
	}
}

// readPump pumps messages from the websocket connection into the session
// state machine. It is the only goroutine that mutates the audio buffer.
func (c *Client) readPump() {
	defer func() {
		c.stopTurn()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			return
		}
		if !c.processMessage(message) {
			return
		}
	}
}

// writePump pumps outbound frames to the websocket connection. A write
// failure means the peer is gone; it is logged and the pump exits, never
// re-raised into the pipeline.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage dispatches one inbound message. Malformed messages are
// logged and dropped without a state change. The return value reports
// whether reading should continue.
func (c *Client) processMessage(message []byte) bool {
	var msg inboundMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("Malformed message dropped", zap.Error(err))
		return true
	}

	switch msg.Type {
	case messageTypeStreamStart:
		c.handleStreamStart()
	case messageTypeAudioChunk:
		c.handleAudioChunk(msg.Audio)
	case messageTypeStreamEnd:
		c.handleStreamEnd()
	case messageTypeInterrupt:
		c.handleInterrupt()
	case messageTypeDisconnect:
		c.logger.Info("Client requested disconnect")
		return false
	default:
		c.logger.Warn("Unknown message type dropped", zap.String("type", msg.Type))
	}
	return true
}

// handleStreamStart begins a new recording. A turn still speaking is
// barged in: interrupted and cancelled before the buffer is cleared.
func (c *Client) handleStreamStart() {
	c.mu.Lock()
	if c.mode == domain.ModeSpeaking && c.turnRunning {
		c.interruptTurnLocked()
	}
	c.audioBuffer.Reset()
	c.isRecording = true
	c.mode = domain.ModeListening
	c.mu.Unlock()

	c.sendMode(domain.ModeListening)
	c.logger.Info("Audio stream started")
}

func (c *Client) handleAudioChunk(encoded string) {
	c.mu.Lock()
	recording := c.isRecording
	c.mu.Unlock()
	if !recording || encoded == "" {
		return
	}

	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		c.logger.Warn("Undecodable audio chunk dropped", zap.Error(err))
		return
	}

	c.mu.Lock()
	c.audioBuffer.Write(audio)
	c.mu.Unlock()
}

// handleStreamEnd closes the recording and launches the turn. A
// stream_end arriving while a turn is still active is dropped, never
// queued, so turns cannot overlap.
func (c *Client) handleStreamEnd() {
	c.mu.Lock()
	c.isRecording = false

	if c.audioBuffer.Len() == 0 {
		c.mode = domain.ModeIdle
		c.mu.Unlock()
		c.sendMode(domain.ModeIdle)
		return
	}

	if c.turnRunning {
		c.mu.Unlock()
		c.logger.Warn("Turn already in progress, dropping stream_end")
		return
	}

	// Hand the buffer off by copy so the turn never observes
	// concurrent mutation.
	audio := make([]byte, c.audioBuffer.Len())
	copy(audio, c.audioBuffer.Bytes())
	c.audioBuffer.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	c.turnRunning = true
	c.turnCancel = cancel
	c.mode = domain.ModeIdle
	c.mu.Unlock()

	c.sendMode(domain.ModeIdle)
	c.logger.Info("Audio stream ended, processing turn", zap.Int("audioBytes", len(audio)))

	c.turnWG.Add(1)
	go func() {
		defer c.turnWG.Done()
		c.drainTurn(ctx, audio)
	}()
}

// handleInterrupt cancels the active turn on user barge-in.
func (c *Client) handleInterrupt() {
	c.mu.Lock()
	if c.turnRunning {
		c.interruptTurnLocked()
	}
	c.mode = domain.ModeListening
	c.mu.Unlock()

	c.sendMode(domain.ModeListening)
	c.logger.Info("Turn interrupted by user")
}

func (c *Client) interruptTurnLocked() {
	c.pipeline.Interrupt()
	if c.turnCancel != nil {
		c.turnCancel()
	}
}

// stopTurn cancels any active turn and waits for its goroutine to
// finish, so nothing writes to the send channel after unregistration
// closes it.
func (c *Client) stopTurn() {
	c.mu.Lock()
	if c.turnRunning {
		c.interruptTurnLocked()
	}
	c.mu.Unlock()
	c.turnWG.Wait()
}

// drainTurn relays one turn's events to the client as they arrive. The
// first audio event flips the session to speaking (announced before the
// payload); completion returns the session to listening, except for a
// turn that produced nothing, which leaves it idle.
func (c *Client) drainTurn(ctx context.Context, audio []byte) {
	events, errs := c.pipeline.ProcessTurn(ctx, audio)

	emitted := 0
	speaking := false
	for ev := range events {
		if _, ok := ev.(domain.AgentAudioEvent); ok && !speaking {
			speaking = true
			c.setMode(domain.ModeSpeaking)
			c.sendMode(domain.ModeSpeaking)
		}
		c.sendEvent(ev)
		emitted++
	}

	if err := <-errs; err != nil {
		c.logger.Error("Turn failed", zap.Error(err))
		c.sendEvent(domain.ErrorEvent{Message: err.Error()})
		emitted++
	}

	c.mu.Lock()
	c.turnRunning = false
	c.turnCancel = nil
	next := domain.ModeListening
	if emitted == 0 && !c.isRecording {
		// Nothing was said and nothing answered; stay idle. A recording
		// already in progress keeps the session listening instead.
		next = domain.ModeIdle
	}
	recording := c.isRecording
	c.mode = next
	c.mu.Unlock()

	// A client mid-recording already saw the listening transition.
	if next == domain.ModeListening && !recording {
		c.sendMode(domain.ModeListening)
	}
}

func (c *Client) setMode(mode domain.Mode) {
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()
}

func (c *Client) sendMode(mode domain.Mode) {
	c.sendEvent(domain.ModeChangeEvent{Mode: mode})
}

// sendEvent encodes an event and queues its frames. When the outbound
// queue is full the frame is dropped and logged; the peer is either gone
// or hopelessly behind, and the pipeline must not be stalled by it.
func (c *Client) sendEvent(ev domain.Event) {
	payloads, err := encodeEvent(ev)
	if err != nil {
		c.logger.Error("Failed to encode event", zap.Error(err))
		return
	}
	for _, payload := range payloads {
		select {
		case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
		default:
			c.logger.Warn("Outbound queue full, dropping frame")
		}
	}
}
