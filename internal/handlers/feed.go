package handlers

import (
	"context"
	"net/http"

	"github.com/XavierBriggs/fortuna/services/game-catalog/internal/hub"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// FeedHandler serves the live game-change feed over websocket
type FeedHandler struct {
	hub      *hub.Hub
	ctx      context.Context
	upgrader websocket.Upgrader
}

// NewFeedHandler creates a feed handler. Client pumps run on ctx rather than the
// request context so they outlive the upgrade request. An empty origins list or
// a "*" entry accepts any origin.
func NewFeedHandler(ctx context.Context, h *hub.Hub, origins []string) *FeedHandler {
	return &FeedHandler{
		hub: h,
		ctx: ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return len(allowed) == 0 || origin == "" || allowed[origin]
	}
}

// HandleWebSocket upgrades the connection and attaches it to the hub
// GET /api/games/feed
func (h *FeedHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := hub.NewClient(uuid.New().String(), conn, h.hub)
	if !h.hub.Register(c) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}

	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx)
}

// HandleMetrics returns feed hub metrics
// GET /api/games/feed/metrics
func (h *FeedHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.hub.GetMetrics())
}
