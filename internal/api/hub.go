package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/photoframe-core/internal/infrastructure/logging"
)

// ChannelSlideshowState carries a slideshow.Snapshot on every change.
const ChannelSlideshowState = "slideshow.state"

// subscriberBuffer is how many encoded messages may queue for one viewer
// before newer ones are dropped.
const subscriberBuffer = 64

// ReplayFunc returns the latest payload of a channel so a new subscriber
// does not wait for the next change.
type ReplayFunc func(channel string) (payload any, ok bool)

// Hub fans slideshow events out to WebSocket subscribers.
type Hub struct {
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*WSClient]struct{}
	replay  ReplayFunc
}

// WSClient is one WebSocket connection and the channels it listens to.
// The hub owns its lifecycle: once detached, nothing more is queued.
type WSClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu       sync.Mutex
	channels map[string]bool
	detached bool
}

func newWSClient(hub *Hub, conn *websocket.Conn) *WSClient {
	return &WSClient{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, subscriberBuffer),
		channels: make(map[string]bool),
	}
}

// NewHub returns an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx ends, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*WSClient]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.detach()
		if c.conn != nil {
			_ = c.conn.Close() //nolint:errcheck // shutting down
		}
	}
	wsClients.Set(0)
}

// SetReplay installs the function consulted when a client subscribes.
func (h *Hub) SetReplay(fn ReplayFunc) {
	h.mu.Lock()
	h.replay = fn
	h.mu.Unlock()
}

func (h *Hub) replayFor(channel string) (any, bool) {
	h.mu.RLock()
	fn := h.replay
	h.mu.RUnlock()
	if fn == nil {
		return nil, false
	}
	return fn(channel)
}

// Register starts delivering broadcasts to c.
func (h *Hub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	wsClients.Set(float64(n))
	h.logger.Debug("viewer connected", "clients", n)
}

// Unregister stops delivery to c and closes its queue. Calling it twice is
// harmless.
func (h *Hub) Unregister(c *WSClient) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	c.detach()
	wsClients.Set(float64(n))
	h.logger.Debug("viewer disconnected", "clients", n)
}

// Broadcast queues payload for every client subscribed to channel. A client
// whose queue is full misses the event.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := encodeEvent(channel, payload)
	if err != nil {
		h.logger.Error("encoding websocket event", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if c.subscribed(channel) && !c.enqueue(data) {
			wsDropped.WithLabelValues(channel).Inc()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *WSClient) subscribe(channels []string) {
	c.mu.Lock()
	for _, ch := range channels {
		c.channels[ch] = true
	}
	c.mu.Unlock()
}

func (c *WSClient) unsubscribe(channels []string) {
	c.mu.Lock()
	for _, ch := range channels {
		delete(c.channels, ch)
	}
	c.mu.Unlock()
}

func (c *WSClient) subscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[channel]
}

// enqueue reports false when the message was dropped.
func (c *WSClient) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *WSClient) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.detached {
		c.detached = true
		close(c.send)
	}
}

// WSMessage is the envelope for everything sent to a client.
type WSMessage struct {
	Type      string    `json:"type"`
	ID        string    `json:"id,omitempty"`
	EventType string    `json:"event_type,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

func encodeEvent(channel string, payload any) ([]byte, error) {
	return json.Marshal(WSMessage{ //nolint:wrapcheck // callers log it
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}
