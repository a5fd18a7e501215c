package publisher

import (
	"context"
	"errors"

	"github.com/XavierBriggs/fortuna/services/game-catalog/pkg/models"
)

// EventPublisher is a single destination for game events
type EventPublisher interface {
	Publish(ctx context.Context, event models.GameEvent) error
}

// Multi sends every event to each of its publishers.
// A failing publisher does not stop the others; all errors are joined.
type Multi []EventPublisher

// Publish fans the event out
func (m Multi) Publish(ctx context.Context, event models.GameEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
