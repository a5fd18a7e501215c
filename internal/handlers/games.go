package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-catalog/internal/db"
	"github.com/XavierBriggs/fortuna/services/game-catalog/pkg/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const storeTimeout = 5 * time.Second

// CatalogImporter runs the populate flow
type CatalogImporter interface {
	Populate(ctx context.Context) (*models.ImportResult, error)
}

// EventPublisher receives an event after every successful mutation
type EventPublisher interface {
	Publish(ctx context.Context, event models.GameEvent) error
}

// GamesHandler handles /api/games endpoints
type GamesHandler struct {
	db       db.GamesDB
	importer CatalogImporter
	events   EventPublisher
}

// NewGamesHandler creates a new games handler. events may be nil.
func NewGamesHandler(database db.GamesDB, importer CatalogImporter, events EventPublisher) *GamesHandler {
	return &GamesHandler{
		db:       database,
		importer: importer,
		events:   events,
	}
}

// ListGames returns every game
// GET /api/games
func (h *GamesHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	games, err := h.db.ListGames(ctx, db.NoFilter{})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve games", err)
		return
	}

	respondJSON(w, http.StatusOK, games)
}

// CreateGame inserts a game from the request body
// POST /api/games
func (h *GamesHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	var fields models.GameFields
	if err := decodeBody(r, &fields); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	game, err := h.db.CreateGame(ctx, fields)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to create game", err)
		return
	}

	h.publish(ctx, models.GameEvent{Type: models.GameCreated, GameID: game.ID, Game: game})
	respondJSON(w, http.StatusOK, game)
}

// SearchGames lists games whose name contains `name`, optionally on one platform
// POST /api/games/search
func (h *GamesHandler) SearchGames(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	var req models.SearchRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	games, err := h.db.ListGames(ctx, db.SearchFilter(req.Name, req.Platform))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to search games", err)
		return
	}

	respondJSON(w, http.StatusOK, games)
}

// PopulateGames fetches the remote catalogs and reshapes them into games
// POST /api/games/populate
func (h *GamesHandler) PopulateGames(w http.ResponseWriter, r *http.Request) {
	result, err := h.importer.Populate(r.Context())
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to populate games", err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"fetched":   result.Fetched,
		"persisted": result.Persisted,
	}).Info("populate finished")

	if result.Persisted > 0 {
		h.publish(r.Context(), models.GameEvent{Type: models.GameImported, Count: result.Persisted})
	}

	respondText(w, http.StatusOK, "OK")
}

// DeleteGame permanently removes a game
// DELETE /api/games/{id}
func (h *GamesHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid game ID", err)
		return
	}

	game, err := h.db.DeleteGame(ctx, id)
	if errors.Is(err, db.ErrGameNotFound) {
		respondError(w, http.StatusNotFound, "game not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to delete game", err)
		return
	}

	h.publish(ctx, models.GameEvent{Type: models.GameDeleted, GameID: game.ID, Game: game})
	respondJSON(w, http.StatusOK, models.DeleteResponse{ID: game.ID})
}

// UpdateGame overwrites every writable field of a game with the request body
// PUT /api/games/{id}
func (h *GamesHandler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid game ID", err)
		return
	}

	var fields models.GameFields
	if err := decodeBody(r, &fields); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	game, err := h.db.UpdateGame(ctx, id, fields)
	if errors.Is(err, db.ErrGameNotFound) {
		respondError(w, http.StatusNotFound, "game not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to update game", err)
		return
	}

	h.publish(ctx, models.GameEvent{Type: models.GameUpdated, GameID: game.ID, Game: game})
	respondJSON(w, http.StatusOK, game)
}

// publish stamps and emits an event; failures are logged, never returned to the client
func (h *GamesHandler) publish(ctx context.Context, event models.GameEvent) {
	if h.events == nil {
		return
	}

	event.ID = uuid.New().String()
	event.Timestamp = time.Now().UTC()

	if err := h.events.Publish(ctx, event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event":   event.Type,
			"game_id": event.GameID,
		}).Warn("failed to publish game event")
	}
}
