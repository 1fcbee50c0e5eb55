// Package provider fetches daily price history from external data sources and
// chains them behind a fallback that always produces a series.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"StockSentinel/internal/model"
)

var (
	// ErrNoData is returned when a provider answered but had no usable bars.
	ErrNoData = errors.New("no data returned")
	// ErrNotConfigured is returned by adapters that need an API key they don't have.
	ErrNotConfigured = errors.New("provider not configured")
	// ErrAllProvidersExhausted means every adapter in the chain failed.
	ErrAllProvidersExhausted = errors.New("all providers exhausted")
)

// Adapter fetches daily OHLCV history for an exchange code.
// Implementations receive the bare code (e.g. PETR4) and apply their own
// formatting. A non-nil error or an empty series both count as failure.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, code string, days int) (model.PriceSeries, error)
}

// APIError is returned when a provider responds with a non-200 status.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether a retry could plausibly succeed.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// normalizeBars sorts bars by time, drops invalid ones, keeps the last bar of
// any duplicated day and trims to the most recent days entries.
func normalizeBars(bars []model.PriceBar, days int) []model.PriceBar {
	valid := bars[:0:0]
	for _, b := range bars {
		if b.Valid() {
			valid = append(valid, b)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Time.Before(valid[j].Time) })

	out := valid[:0:0]
	for _, b := range valid {
		if n := len(out); n > 0 && sameDay(out[n-1], b) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	if days > 0 && len(out) > days {
		out = out[len(out)-days:]
	}
	return out
}

func sameDay(a, b model.PriceBar) bool {
	ay, am, ad := a.Time.UTC().Date()
	by, bm, bd := b.Time.UTC().Date()
	return ay == by && am == bm && ad == bd
}
