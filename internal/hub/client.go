package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-catalog/pkg/models"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeTimeout = 10 * time.Second

	// a client silent for longer than idleTimeout (no message, no pong) is dropped
	idleTimeout = time.Minute

	// must stay below idleTimeout
	pingInterval = 54 * time.Second

	// inbound frames are only subscribe/unsubscribe/heartbeat
	maxInboundBytes = 512

	sendBufferSize = 256
)

// Client is one websocket connection to the feed
type Client struct {
	ID   string
	Send chan models.ServerMessage

	conn *websocket.Conn
	hub  *Hub

	filterMu  sync.RWMutex
	platforms map[string]bool // nil: every platform

	sendMu sync.Mutex
	closed bool
}

// NewClient creates a new client instance
func NewClient(id string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:   id,
		Send: make(chan models.ServerMessage, sendBufferSize),
		conn: conn,
		hub:  hub,
	}
}

// ReadPump handles client messages until the peer goes away or ctx ends.
// It owns unregistering the client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	}
	c.conn.SetReadLimit(maxInboundBytes)
	extend("")
	c.conn.SetPongHandler(extend)

	for ctx.Err() == nil {
		var msg models.ClientMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("client", c.ID).Warn("feed client closed unexpectedly")
			}
			return
		}

		extend("")
		c.handleClientMessage(msg)
	}
}

// WritePump drains Send onto the connection and keeps it alive with pings.
// A closed Send or a cancelled ctx ends the connection with a close frame.
func (c *Client) WritePump(ctx context.Context) {
	keepalive := time.NewTicker(pingInterval)
	defer keepalive.Stop()
	defer c.conn.Close()

	for {
		var err error

		select {
		case <-ctx.Done():
			c.writeClose()
			return

		case msg, ok := <-c.Send:
			if !ok {
				c.writeClose()
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err = c.conn.WriteJSON(msg)

		case <-keepalive.C:
			err = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
		}

		if err != nil {
			logrus.WithError(err).WithField("client", c.ID).Debug("feed write failed")
			return
		}
	}
}

func (c *Client) writeClose() {
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(writeTimeout))
}

// TrySend queues a message without blocking; false means the buffer is full
// or the client has been closed
func (c *Client) TrySend(msg models.ServerMessage) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound queue once; WritePump then ends the connection
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// SetFilter replaces the client's platform subscription
func (c *Client) SetFilter(filter models.SubscriptionFilter) {
	var platforms map[string]bool
	if len(filter.Platforms) > 0 {
		platforms = make(map[string]bool, len(filter.Platforms))
		for _, p := range filter.Platforms {
			platforms[p] = true
		}
	}

	c.filterMu.Lock()
	c.platforms = platforms
	c.filterMu.Unlock()
}

// Platforms returns the subscribed platforms; empty means all
func (c *Client) Platforms() []string {
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()

	out := make([]string, 0, len(c.platforms))
	for p := range c.platforms {
		out = append(out, p)
	}
	return out
}

// MatchesFilter reports whether the event should reach this client.
// Events without a game (imports) reach every client.
func (c *Client) MatchesFilter(event models.GameEvent) bool {
	if event.Game == nil {
		return true
	}

	c.filterMu.RLock()
	defer c.filterMu.RUnlock()

	return c.platforms == nil || c.platforms[event.Platform()]
}

func (c *Client) handleClientMessage(msg models.ClientMessage) {
	switch msg.Type {
	case models.MessageTypeSubscribe:
		filter, err := decodeFilter(msg.Payload)
		if err != nil {
			c.reply(models.MessageTypeError, models.ErrorMessage{Code: "invalid_filter", Message: err.Error()})
			return
		}
		c.SetFilter(filter)
		logrus.WithFields(logrus.Fields{"client": c.ID, "platforms": filter.Platforms}).Debug("feed client subscribed")

	case models.MessageTypeUnsubscribe:
		c.SetFilter(models.SubscriptionFilter{})

	case models.MessageTypeHeartbeat:
		c.reply(models.MessageTypeHeartbeat, models.HeartbeatPayload{
			ClientID:  c.ID,
			Platforms: c.Platforms(),
			Queued:    len(c.Send),
		})

	default:
		c.reply(models.MessageTypeError, models.ErrorMessage{
			Code:    "unknown_message_type",
			Message: fmt.Sprintf("unknown message type: %s", msg.Type),
		})
	}
}

func (c *Client) reply(typ string, payload interface{}) {
	c.TrySend(models.ServerMessage{Type: typ, Payload: payload, Timestamp: time.Now()})
}

// decodeFilter re-reads a generic payload as a SubscriptionFilter
func decodeFilter(payload map[string]interface{}) (models.SubscriptionFilter, error) {
	var filter models.SubscriptionFilter

	raw, err := json.Marshal(payload)
	if err == nil {
		err = json.Unmarshal(raw, &filter)
	}
	if err != nil {
		return filter, fmt.Errorf("invalid subscription filter: %w", err)
	}
	return filter, nil
}
