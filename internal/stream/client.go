package stream

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be less than pongWait
	maxMessageSize = 512
	sendBufferSize = 64
)

// Client is one WebSocket subscriber.
type Client struct {
	ID         string
	strategyID string // empty subscribes to every strategy
	conn       *websocket.Conn
	send       chan Message
	hub        *Hub
	logger     *zap.Logger
}

func newClient(id, strategyID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:         id,
		strategyID: strategyID,
		conn:       conn,
		send:       make(chan Message, sendBufferSize),
		hub:        hub,
		logger:     hub.logger.With(zap.String("client_id", id)),
	}
}

// Matches reports whether the client subscribed to strategyID.
func (c *Client) Matches(strategyID string) bool {
	return c.strategyID == "" || c.strategyID == strategyID
}

// trySend queues msg without blocking. Returns false when the buffer is full.
func (c *Client) trySend(msg Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// readPump drains inbound frames so pongs and close frames are processed.
// Subscribers do not send commands; anything they send is discarded.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("subscriber closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("subscriber write failed", zap.Error(err))
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
