package models

import "time"

// GameEventType identifies what happened to a game
type GameEventType string

const (
	GameCreated  GameEventType = "created"
	GameUpdated  GameEventType = "updated"
	GameDeleted  GameEventType = "deleted"
	GameImported GameEventType = "imported"
)

// GameEvent is emitted after every successful mutation
type GameEvent struct {
	ID        string        `json:"id"`
	Type      GameEventType `json:"type"`
	GameID    int64         `json:"gameId,omitempty"`
	Game      *Game         `json:"game,omitempty"`
	Count     int           `json:"count,omitempty"` // rows written by an import
	Timestamp time.Time     `json:"timestamp"`
}

// Platform returns the platform of the game carried by the event, if any
func (e GameEvent) Platform() string {
	if e.Game == nil || e.Game.Platform == nil {
		return ""
	}
	return *e.Game.Platform
}
