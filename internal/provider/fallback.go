package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"StockSentinel/internal/metrics"
	"StockSentinel/internal/model"
	"StockSentinel/internal/symbol"
)

// DefaultAdapterTimeout bounds one adapter call when none is configured.
const DefaultAdapterTimeout = 10 * time.Second

// AdapterStats counts calls made to one adapter through the fallback.
type AdapterStats struct {
	Name      string    `json:"name"`
	Priority  int       `json:"priority"`
	Requests  int64     `json:"requests"`
	Successes int64     `json:"successes"`
	Failures  int64     `json:"failures"`
	LastUsed  time.Time `json:"last_used,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// ProbeResult is one adapter/symbol cell of a probe run.
type ProbeResult struct {
	Provider string `json:"provider"`
	Priority int    `json:"priority"`
	Symbol   string `json:"symbol"`
	Success  bool   `json:"success"`
	Bars     int    `json:"bars"`
	Error    string `json:"error,omitempty"`
}

// Fallback tries adapters in priority order and returns the first non-empty
// series. With a synthetic adapter last in the chain it never runs dry.
type Fallback struct {
	adapters []Adapter
	timeout  time.Duration
	log      zerolog.Logger

	mu    sync.Mutex
	stats []AdapterStats
}

// NewFallback chains adapters in the given order. A zero timeout uses
// DefaultAdapterTimeout.
func NewFallback(adapters []Adapter, timeout time.Duration, log zerolog.Logger) *Fallback {
	if timeout <= 0 {
		timeout = DefaultAdapterTimeout
	}
	stats := make([]AdapterStats, len(adapters))
	for i, a := range adapters {
		stats[i] = AdapterStats{Name: a.Name(), Priority: i + 1}
	}
	return &Fallback{adapters: adapters, timeout: timeout, log: log, stats: stats}
}

// Names lists the adapters in priority order.
func (f *Fallback) Names() []string {
	names := make([]string, len(f.adapters))
	for i, a := range f.adapters {
		names[i] = a.Name()
	}
	return names
}

// Fetch returns the first usable series for sym. Fractional symbols are tried
// under their own code and then under the base code before moving on to the
// next adapter. Only a cancelled ctx or an exhausted chain produce an error.
func (f *Fallback) Fetch(ctx context.Context, sym symbol.Symbol, days int) (model.PriceSeries, error) {
	candidates := []string{sym.Code}
	if sym.IsFractional && sym.BaseCode != sym.Code {
		candidates = append(candidates, sym.BaseCode)
	}

	for i, a := range f.adapters {
		for _, code := range candidates {
			series, err := f.attempt(ctx, i, a, code, days)
			if err == nil {
				series.Symbol = sym.Code
				f.log.Debug().Str("provider", a.Name()).Str("symbol", sym.Code).Int("bars", series.Len()).Msg("fetched price history")
				return series, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return model.PriceSeries{}, ctxErr
			}
			f.log.Warn().Err(err).Str("provider", a.Name()).Str("symbol", code).Int("priority", i+1).Msg("provider failed, trying next")
		}
	}
	return model.PriceSeries{}, fmt.Errorf("%s: %w", sym.Code, ErrAllProvidersExhausted)
}

// attempt runs a single adapter call under its own timeout, converting panics
// and empty series into errors.
func (f *Fallback) attempt(ctx context.Context, idx int, a Adapter, code string, days int) (series model.PriceSeries, err error) {
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", a.Name(), r)
		}
		f.record(idx, err)
	}()

	series, err = a.Fetch(callCtx, code, days)
	if err != nil {
		return model.PriceSeries{}, err
	}
	if series.Len() == 0 {
		return model.PriceSeries{}, fmt.Errorf("%s: %w", a.Name(), ErrNoData)
	}
	return series, nil
}

func (f *Fallback) record(idx int, err error) {
	outcome := "success"
	f.mu.Lock()
	s := &f.stats[idx]
	s.Requests++
	s.LastUsed = time.Now()
	if err != nil {
		s.Failures++
		s.LastError = err.Error()
		outcome = "failure"
		if errors.Is(err, ErrNotConfigured) {
			outcome = "skipped"
		}
	} else {
		s.Successes++
	}
	name := s.Name
	f.mu.Unlock()
	metrics.ProviderAttempts.WithLabelValues(name, outcome).Inc()
}

// Stats returns a snapshot of per-adapter counters in priority order.
func (f *Fallback) Stats() []AdapterStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]AdapterStats, len(f.stats))
	copy(out, f.stats)
	return out
}

// Probe asks every adapter for every code without short-circuiting. It does
// not touch the usage counters.
func (f *Fallback) Probe(ctx context.Context, codes []string, days int) []ProbeResult {
	results := make([]ProbeResult, 0, len(f.adapters)*len(codes))
	for i, a := range f.adapters {
		for _, code := range codes {
			res := ProbeResult{Provider: a.Name(), Priority: i + 1, Symbol: code}
			series, err := f.probeOne(ctx, a, code, days)
			switch {
			case err != nil:
				res.Error = err.Error()
			case series.Len() == 0:
				res.Error = ErrNoData.Error()
			default:
				res.Success = true
				res.Bars = series.Len()
			}
			results = append(results, res)
		}
	}
	return results
}

func (f *Fallback) probeOne(ctx context.Context, a Adapter, code string, days int) (series model.PriceSeries, err error) {
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", a.Name(), r)
		}
	}()
	return a.Fetch(callCtx, code, days)
}
