package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-catalog/pkg/models"
	"github.com/sirupsen/logrus"
)

const broadcastBufferSize = 1000

// ErrBufferFull is returned by Publish when the broadcast queue is saturated
var ErrBufferFull = errors.New("broadcast buffer full")

// Hub maintains the set of feed clients and broadcasts game events to them
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan models.GameEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	totalConnections int64
	totalMessages    int64
	metricsMu        sync.Mutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.GameEvent, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop; it returns when ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	logrus.Info("✓ Feed hub started")

	go h.reportMetrics(ctx)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Register adds a client to the hub; it reports false once the hub has stopped
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues an event for every matching client without blocking
func (h *Hub) Publish(ctx context.Context, event models.GameEvent) error {
	select {
	case h.broadcast <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	h.incrementTotalConnections()

	logrus.WithFields(logrus.Fields{"client": c.ID, "total": len(h.clients)}).Info("feed client connected")
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.closeSend()
		logrus.WithFields(logrus.Fields{"client": c.ID, "total": len(h.clients)}).Info("feed client disconnected")
	}
}

func (h *Hub) broadcastEvent(event models.GameEvent) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := models.ServerMessage{
		Type:      models.MessageTypeGameEvent,
		Payload:   event,
		Timestamp: time.Now(),
	}

	sent := 0
	for _, c := range clients {
		if !c.MatchesFilter(event) {
			continue
		}

		if c.TrySend(message) {
			sent++
			continue
		}

		// slow client: drop it rather than stall the hub
		logrus.WithField("client", c.ID).Warn("feed client buffer full, disconnecting")
		go h.Unregister(c)
	}

	if sent > 0 {
		h.incrementTotalMessages()
	}
}

// GetMetrics returns hub metrics
func (h *Hub) GetMetrics() map[string]interface{} {
	h.clientsMu.RLock()
	activeClients := len(h.clients)
	h.clientsMu.RUnlock()

	h.metricsMu.Lock()
	totalConnections := h.totalConnections
	totalMessages := h.totalMessages
	h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_clients":     activeClients,
		"total_connections":  totalConnections,
		"total_messages":     totalMessages,
		"broadcast_capacity": cap(h.broadcast),
		"broadcast_usage":    len(h.broadcast),
	}
}

// GetClientCount returns the number of active clients
func (h *Hub) GetClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	logrus.WithField("clients", len(h.clients)).Info("shutting down feed hub")
	close(h.done)

	for c := range h.clients {
		c.closeSend()
		delete(h.clients, c)
	}
}

func (h *Hub) reportMetrics(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logrus.WithFields(logrus.Fields(h.GetMetrics())).Debug("feed hub metrics")
		}
	}
}

func (h *Hub) incrementTotalConnections() {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	h.totalConnections++
}

func (h *Hub) incrementTotalMessages() {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	h.totalMessages++
}
