package models

import "time"

// Message types exchanged over the live feed
const (
	MessageTypeGameEvent   = "game_event"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypeHeartbeat   = "heartbeat"
	MessageTypeError       = "error"
)

// ClientMessage is sent by feed clients
type ClientMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ServerMessage is sent to feed clients
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// SubscriptionFilter limits which events a feed client receives.
// An empty filter receives everything.
type SubscriptionFilter struct {
	Platforms []string `json:"platforms"`
}

// ErrorMessage is the payload of an error feed message
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HeartbeatPayload answers a client heartbeat
type HeartbeatPayload struct {
	ClientID  string   `json:"client_id"`
	Platforms []string `json:"platforms"`
	Queued    int      `json:"queued"`
}

// ErrorResponse represents an API error.
// Detail carries the underlying error text unchanged.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Code    int    `json:"code"`
}
