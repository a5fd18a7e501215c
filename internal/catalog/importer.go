package catalog

import (
	"context"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/game-catalog/pkg/models"
	"github.com/sirupsen/logrus"
)

// Fetcher downloads and concatenates catalog feeds
type Fetcher interface {
	FetchAll(ctx context.Context, urls ...string) ([]Record, error)
}

// GameWriter persists reshaped catalog games
type GameWriter interface {
	BulkCreateGames(ctx context.Context, games []models.GameInput) (int, error)
}

// Importer runs the populate flow: fetch, reshape, optionally persist
type Importer struct {
	fetcher Fetcher
	store   GameWriter
	urls    []string
	persist bool
}

// NewImporter creates an importer. With persist false the reshaped games are discarded.
func NewImporter(fetcher Fetcher, store GameWriter, urls []string, persist bool) *Importer {
	if len(urls) == 0 {
		urls = DefaultURLs
	}
	return &Importer{
		fetcher: fetcher,
		store:   store,
		urls:    urls,
		persist: persist,
	}
}

// Populate fetches every configured feed and reshapes the records into games
func (i *Importer) Populate(ctx context.Context) (*models.ImportResult, error) {
	records, err := i.fetcher.FetchAll(ctx, i.urls...)
	if err != nil {
		return nil, err
	}

	games := ReshapeAll(records)
	result := &models.ImportResult{
		Fetched: len(games),
		Persist: i.persist,
	}

	log := logrus.WithFields(logrus.Fields{
		"feeds":   len(i.urls),
		"fetched": len(games),
	})

	if !i.persist {
		log.Info("catalog reshaped; persistence disabled")
		return result, nil
	}

	n, err := i.store.BulkCreateGames(ctx, games)
	if err != nil {
		return nil, fmt.Errorf("persist catalog: %w", err)
	}
	result.Persisted = n

	log.WithField("persisted", n).Info("catalog imported")
	return result, nil
}
