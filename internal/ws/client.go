package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/scrimline/scrimline-chat/internal/model"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Ping period, must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size
	maxMessageSize = 4096

	// Outbound buffer per connection
	sendBufferSize = 256
)

// Client is one live websocket connection for an authenticated user
type Client struct {
	registry *Registry
	conn     *websocket.Conn
	userID   model.UserID

	// sendMu guards send against enqueue-after-close when a reconnect
	// supersedes this connection mid-frame
	sendMu sync.RWMutex
	closed bool
	send   chan []byte

	// rooms is owned by the registry and guarded by its lock
	rooms map[model.RoomID]struct{}
}

func newClient(registry *Registry, conn *websocket.Conn, userID model.UserID) *Client {
	return &Client{
		registry: registry,
		conn:     conn,
		userID:   userID,
		send:     make(chan []byte, sendBufferSize),
		rooms:    make(map[model.RoomID]struct{}),
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// enqueue queues a frame without blocking. Reports false when the
// connection is closed or its buffer is full.
func (c *Client) enqueue(data []byte) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// sendFrame enqueues a frame for this client only
func (c *Client) sendFrame(event string, payload any) {
	data, err := encodeFrame(event, payload)
	if err != nil {
		return
	}
	c.enqueue(data)
}

// readPump reads inbound frames and hands them to the handler. Exits on
// read error and unregisters the client.
func (c *Client) readPump(ctx context.Context, h *Handler) {
	defer func() {
		c.registry.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error",
					slog.String("user_id", string(c.userID)),
					slog.String("error", err.Error()),
				)
			}
			return
		}
		h.handleFrame(ctx, c, data)
	}
}

// writePump drains the send channel to the connection and keeps the peer
// alive with pings. Exits when the registry closes the send channel.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
