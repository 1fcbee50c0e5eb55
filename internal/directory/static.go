package directory

import (
	"context"
	"fmt"

	"StockSentinel/internal/config"
	"StockSentinel/internal/model"
)

// Static is an in-memory directory, typically built from the config file.
type Static struct {
	subscribers []model.Subscriber
	portfolios  map[string][]model.Position
}

// NewStatic builds a directory from config entries.
func NewStatic(entries []config.SubscriberEntry) *Static {
	s := &Static{portfolios: make(map[string][]model.Position, len(entries))}
	for _, e := range entries {
		s.subscribers = append(s.subscribers, model.Subscriber{
			ID:        e.ID,
			Name:      e.Name,
			Watchlist: append([]string(nil), e.Watchlist...),
		})
		positions := make([]model.Position, 0, len(e.Portfolio))
		for _, p := range e.Portfolio {
			positions = append(positions, model.Position{Symbol: p.Symbol, Quantity: p.Quantity, AvgPrice: p.AvgPrice})
		}
		s.portfolios[e.ID] = positions
	}
	return s
}

func (s *Static) ActiveSubscribers(_ context.Context) ([]model.Subscriber, error) {
	out := make([]model.Subscriber, len(s.subscribers))
	copy(out, s.subscribers)
	return out, nil
}

func (s *Static) PortfolioOf(_ context.Context, subscriberID string) ([]model.Position, error) {
	positions, ok := s.portfolios[subscriberID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, subscriberID)
	}
	return append([]model.Position(nil), positions...), nil
}
