package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-catalog/internal/db"
	"github.com/XavierBriggs/fortuna/services/game-catalog/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// ClientCounter reports connected feed clients
type ClientCounter interface {
	GetClientCount() int
}

// Handler serves service-level endpoints
type Handler struct {
	db   db.GamesDB
	feed ClientCounter
}

// NewHandler creates a new handler with dependencies. feed may be nil.
func NewHandler(database db.GamesDB, feed ClientCounter) *Handler {
	return &Handler{
		db:   database,
		feed: feed,
	}
}

// HealthCheck returns the health status of the service
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unhealthy", err)
		return
	}

	feedClients := 0
	if h.feed != nil {
		feedClients = h.feed.GetClientCount()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"timestamp":    time.Now().UTC(),
		"service":      "game-catalog",
		"feed_clients": feedClients,
	})
}

// Helper functions

func parseIDParam(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}

var errTrailingData = errors.New("request body must contain a single JSON value")

// decodeBody decodes a JSON body into v; an empty body leaves v untouched
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("error encoding response")
	}
}

func respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, body); err != nil {
		logrus.WithError(err).Error("error writing response")
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	errResp := models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil {
		errResp.Detail = err.Error()
		logrus.WithError(err).WithField("status", status).Error(message)
	}

	respondJSON(w, status, errResp)
}
