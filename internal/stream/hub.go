package stream

import (
	"context"
	"time"

	"go.uber.org/zap"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/observability"
	"strategy-journal/internal/storage"
)

const broadcastBufferSize = 256

// Hub tracks subscribers and fans metrics updates out to them.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	count      chan chan int
	done       chan struct{}
	logger     *zap.Logger
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan chan int),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Compile-time interface check.
var _ storage.MetricsSink = (*Hub)(nil)

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	h.logger.Info("stream hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			observability.UpdateStreamClients(len(h.clients))
			h.logger.Debug("subscriber connected",
				zap.String("client_id", c.ID),
				zap.String("strategy_id", c.strategyID),
				zap.Int("total", len(h.clients)))

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case reply := <-h.count:
			reply <- len(h.clients)
		}
	}
}

// Register adds a client. It is a no-op once the hub has stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

// Unregister removes a client. It is a no-op once the hub has stopped.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected subscribers, or 0 once stopped.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// PersistMetrics queues a metrics update for subscribers of strategyID.
// Delivery is best effort: a full broadcast buffer drops the update.
func (h *Hub) PersistMetrics(_ context.Context, strategyID string, m domain.MetricsRecord) error {
	msg := Message{
		Type:       MessageTypeMetrics,
		StrategyID: strategyID,
		Metrics:    &m,
		Timestamp:  time.Now().UTC(),
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("stream broadcast buffer full, dropping update", zap.String("strategy_id", strategyID))
		observability.RecordStreamBroadcast(1)
	}
	return nil
}

func (h *Hub) fanOut(msg Message) {
	dropped := 0
	for c := range h.clients {
		if !c.Matches(msg.StrategyID) {
			continue
		}
		if !c.trySend(msg) {
			// slow subscriber
			dropped++
			h.remove(c)
		}
	}
	observability.RecordStreamBroadcast(dropped)
}

func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	observability.UpdateStreamClients(len(h.clients))
	h.logger.Debug("subscriber disconnected", zap.String("client_id", c.ID), zap.Int("total", len(h.clients)))
}

func (h *Hub) shutdown() {
	h.logger.Info("stream hub stopping", zap.Int("clients", len(h.clients)))
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	observability.UpdateStreamClients(0)
}
