package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/photoframe-core/internal/slideshow"
)

// Message types on the /ws endpoint.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

// WSSubscribePayload lists the channels of a subscribe or unsubscribe.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// wsRequest is what a client sends. The payload is decoded per type.
type wsRequest struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// replayState hands a new subscriber the current slideshow snapshot.
func (s *Server) replayState(channel string) (any, bool) {
	if channel != ChannelSlideshowState {
		return nil, false
	}
	return slideshow.SnapshotOf(s.slideshow.State()), true
}

// handleWebSocket upgrades the request and serves the connection until the
// viewer goes away. Nothing is pushed until the client subscribes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.isAllowedOrigin(origin)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already answered the request.
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	client := newWSClient(s.hub, conn)
	s.hub.Register(client)

	go client.writeLoop(s.wsCfg.PingInterval, s.wsCfg.PongTimeout)
	client.readLoop(int64(s.wsCfg.MaxMessageSize), s.wsCfg.PingInterval+s.wsCfg.PongTimeout)
}

// readLoop handles requests until the connection fails. Any frame, not just
// a pong, extends the deadline because some browsers ignore protocol pings.
func (c *WSClient) readLoop(limit int64, idle time.Duration) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close() //nolint:errcheck // already failing
	}()

	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(idle)) }
	c.conn.SetReadLimit(limit)
	c.conn.SetPongHandler(func(string) error { return extend() })
	if err := extend(); err != nil {
		return
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		if extend() != nil {
			return
		}
		c.dispatch(data)
	}
}

// writeLoop is the only writer on the connection. It ends when the queue is
// closed or a write fails.
func (c *WSClient) writeLoop(ping, wait time.Duration) {
	ticker := time.NewTicker(ping)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() //nolint:errcheck // already finishing
	}()

	write := func(kind int, data []byte) error {
		if err := c.conn.SetWriteDeadline(time.Now().Add(wait)); err != nil {
			return err //nolint:wrapcheck // only ends the loop
		}
		return c.conn.WriteMessage(kind, data) //nolint:wrapcheck // only ends the loop
	}

	for {
		select {
		case data, open := <-c.send:
			if !open {
				_ = write(websocket.CloseMessage, nil) //nolint:errcheck // goodbye is best effort
				return
			}
			if write(websocket.TextMessage, data) != nil {
				return
			}
		case <-ticker.C:
			if write(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}

func (c *WSClient) dispatch(data []byte) {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.reply("", WSTypeError, errorPayload("invalid JSON message"))
		return
	}

	switch req.Type {
	case WSTypePing:
		c.reply(req.ID, WSTypePong, nil)
	case WSTypeSubscribe, WSTypeUnsubscribe:
		var body WSSubscribePayload
		if err := json.Unmarshal(req.Payload, &body); err != nil || len(body.Channels) == 0 {
			c.reply(req.ID, WSTypeError, errorPayload("payload must list channels"))
			return
		}
		if req.Type == WSTypeUnsubscribe {
			c.unsubscribe(body.Channels)
			c.reply(req.ID, WSTypeResponse, map[string][]string{"unsubscribed": body.Channels})
			return
		}
		c.subscribe(body.Channels)
		c.reply(req.ID, WSTypeResponse, map[string][]string{"subscribed": body.Channels})
		c.replay(body.Channels)
	default:
		c.reply(req.ID, WSTypeError, errorPayload("unknown message type: "+req.Type))
	}
}

// replay sends the latest value of each channel right after subscribing.
func (c *WSClient) replay(channels []string) {
	for _, ch := range channels {
		payload, ok := c.hub.replayFor(ch)
		if !ok {
			continue
		}
		if data, err := encodeEvent(ch, payload); err == nil {
			c.enqueue(data)
		}
	}
}

func (c *WSClient) reply(id, kind string, payload any) {
	data, err := json.Marshal(WSMessage{Type: kind, ID: id, Timestamp: time.Now().UTC(), Payload: payload})
	if err != nil {
		return
	}
	c.enqueue(data)
}

func errorPayload(message string) map[string]string {
	return map[string]string{"message": message}
}
