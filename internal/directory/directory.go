// Package directory provides the subscribers and portfolios a batch cycle
// fans results out to.
package directory

import (
	"context"
	"errors"

	"StockSentinel/internal/model"
)

// ErrNotFound is returned for unknown subscriber IDs.
var ErrNotFound = errors.New("subscriber not found")

// Directory lists active subscribers and their holdings.
type Directory interface {
	ActiveSubscribers(ctx context.Context) ([]model.Subscriber, error)
	PortfolioOf(ctx context.Context, subscriberID string) ([]model.Position, error)
}
