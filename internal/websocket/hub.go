package websocket

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rakhadane/suara/domain/repositories"
	"github.com/rakhadane/suara/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Options carries the session-level tunables the hub hands to each
// new client's pipeline.
type Options struct {
	AudioConfig     repositories.AudioConfig
	ProviderTimeout time.Duration
}

// Hub maintains the set of active voice session clients and owns the
// provider instances shared across sessions.
type Hub struct {
	// Registered clients keyed by session ID.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	stt repositories.SpeechToText
	llm repositories.LanguageModel
	tts repositories.SpeechSynthesizer

	options Options
	logger  *zap.Logger
}

// NewHub creates a new WebSocket hub over the three provider capabilities.
func NewHub(
	stt repositories.SpeechToText,
	llm repositories.LanguageModel,
	tts repositories.SpeechSynthesizer,
	options Options,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stt:        stt,
		llm:        llm,
		tts:        tts,
		options:    options,
		logger:     logger,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.sessionID] = client
			h.logger.Info("Session registered", zap.String("sessionID", client.sessionID))

		case client := <-h.unregister:
			if _, ok := h.clients[client.sessionID]; ok {
				delete(h.clients, client.sessionID)
				close(client.send)
			}
			h.logger.Info("Session unregistered", zap.String("sessionID", client.sessionID))
		}
	}
}

// newClient builds a client with a fresh session ID and its own pipeline.
func (h *Hub) newClient(conn *websocket.Conn) *Client {
	sessionID := uuid.NewString()
	pipeline := usecase.NewPipeline(h.stt, h.llm, h.tts,
		h.logger.With(zap.String("sessionID", sessionID)),
		usecase.WithAudioConfig(h.options.AudioConfig),
		usecase.WithProviderTimeout(h.options.ProviderTimeout),
	)
	return newClient(h, conn, sessionID, pipeline, h.logger)
}

// ServeSession upgrades the HTTP request and runs a voice session on it.
func ServeSession(hub *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := hub.newClient(conn)
	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	// The client starts idle; tell the peer so immediately.
	client.sendMode(clientInitialMode)

	return nil
}
