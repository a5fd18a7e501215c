package hub

import (
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-catalog/pkg/models"
)

func gameEvent(platform *string) models.GameEvent {
	name := "Foo"
	return models.GameEvent{
		ID:   "evt",
		Type: models.GameCreated,
		Game: &models.Game{
			ID:         1,
			GameFields: models.GameFields{Name: &name, Platform: platform},
		},
	}
}

func strPtr(s string) *string { return &s }

func TestClient_MatchesFilter(t *testing.T) {
	tests := []struct {
		name     string
		filter   models.SubscriptionFilter
		event    models.GameEvent
		expected bool
	}{
		{
			name:     "empty filter matches everything",
			filter:   models.SubscriptionFilter{},
			event:    gameEvent(strPtr("ios")),
			expected: true,
		},
		{
			name:     "platform filter matches",
			filter:   models.SubscriptionFilter{Platforms: []string{"android", "ios"}},
			event:    gameEvent(strPtr("ios")),
			expected: true,
		},
		{
			name:     "platform filter doesn't match",
			filter:   models.SubscriptionFilter{Platforms: []string{"android"}},
			event:    gameEvent(strPtr("ios")),
			expected: false,
		},
		{
			name:     "platform match is exact",
			filter:   models.SubscriptionFilter{Platforms: []string{"IOS"}},
			event:    gameEvent(strPtr("ios")),
			expected: false,
		},
		{
			name:     "game without platform is filtered out",
			filter:   models.SubscriptionFilter{Platforms: []string{"ios"}},
			event:    gameEvent(nil),
			expected: false,
		},
		{
			name:     "import events reach every client",
			filter:   models.SubscriptionFilter{Platforms: []string{"ios"}},
			event:    models.GameEvent{Type: models.GameImported, Count: 10},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient("test", nil, NewHub())
			c.SetFilter(tt.filter)

			if got := c.MatchesFilter(tt.event); got != tt.expected {
				t.Errorf("MatchesFilter() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestClient_TrySend(t *testing.T) {
	c := NewClient("test", nil, NewHub())

	for i := 0; i < sendBufferSize; i++ {
		if !c.TrySend(models.ServerMessage{Type: models.MessageTypeGameEvent}) {
			t.Fatalf("send %d failed before buffer was full", i)
		}
	}

	if c.TrySend(models.ServerMessage{Type: models.MessageTypeGameEvent}) {
		t.Error("expected TrySend to fail on a full buffer")
	}

	if len(c.Send) != sendBufferSize {
		t.Errorf("expected %d queued messages, got %d", sendBufferSize, len(c.Send))
	}
}

func TestClient_TrySendAfterClose(t *testing.T) {
	c := NewClient("test", nil, NewHub())
	c.closeSend()
	c.closeSend()

	if c.TrySend(models.ServerMessage{Type: models.MessageTypeHeartbeat}) {
		t.Error("expected TrySend to fail after close")
	}
}

func TestClient_HandleClientMessage(t *testing.T) {
	c := NewClient("test", nil, NewHub())

	c.handleClientMessage(models.ClientMessage{
		Type:    models.MessageTypeSubscribe,
		Payload: map[string]interface{}{"platforms": []interface{}{"ios"}},
	})
	if p := c.Platforms(); len(p) != 1 || p[0] != "ios" {
		t.Errorf("expected ios filter, got %v", p)
	}

	c.handleClientMessage(models.ClientMessage{Type: models.MessageTypeUnsubscribe})
	if p := c.Platforms(); len(p) != 0 {
		t.Errorf("expected filter cleared, got %v", p)
	}

	c.handleClientMessage(models.ClientMessage{Type: models.MessageTypeHeartbeat})
	select {
	case msg := <-c.Send:
		if msg.Type != models.MessageTypeHeartbeat {
			t.Errorf("expected heartbeat, got %s", msg.Type)
		}
		if hb, ok := msg.Payload.(models.HeartbeatPayload); !ok || hb.ClientID != "test" {
			t.Errorf("unexpected heartbeat payload: %+v", msg.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no heartbeat reply")
	}

	c.handleClientMessage(models.ClientMessage{Type: "bogus"})
	msg := <-c.Send
	if msg.Type != models.MessageTypeError {
		t.Fatalf("expected error message, got %s", msg.Type)
	}
	if payload, ok := msg.Payload.(models.ErrorMessage); !ok || payload.Code != "unknown_message_type" {
		t.Errorf("unexpected error payload: %+v", msg.Payload)
	}
}

func TestClient_InvalidSubscribePayload(t *testing.T) {
	c := NewClient("test", nil, NewHub())

	c.handleClientMessage(models.ClientMessage{
		Type:    models.MessageTypeSubscribe,
		Payload: map[string]interface{}{"platforms": "ios"},
	})

	msg := <-c.Send
	if payload, ok := msg.Payload.(models.ErrorMessage); !ok || payload.Code != "invalid_filter" {
		t.Errorf("expected invalid_filter error, got %+v", msg.Payload)
	}
}
