package notifier

import (
	"context"

	"StockSentinel/internal/model"
)

// Notifier delivers a subscriber digest after a batch cycle.
type Notifier interface {
	Notify(ctx context.Context, digest model.Digest) error
}

// Noop discards digests. Used when no delivery channel is configured.
type Noop struct{}

func (Noop) Notify(context.Context, model.Digest) error { return nil }
