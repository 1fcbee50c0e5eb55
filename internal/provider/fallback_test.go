package provider

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSentinel/internal/model"
	"StockSentinel/internal/symbol"
)

// stubAdapter returns canned results and records every code it was asked for.
type stubAdapter struct {
	name   string
	series func(code string) (model.PriceSeries, error)

	mu    sync.Mutex
	calls []string
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Fetch(ctx context.Context, code string, days int) (model.PriceSeries, error) {
	s.mu.Lock()
	s.calls = append(s.calls, code)
	s.mu.Unlock()
	return s.series(code)
}

func (s *stubAdapter) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func bars(n int) model.PriceSeries {
	out := model.PriceSeries{Source: model.SourceExternal}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		out.Bars = append(out.Bars, model.PriceBar{Time: start.AddDate(0, 0, i), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1})
	}
	return out
}

func failing(name string) *stubAdapter {
	return &stubAdapter{name: name, series: func(string) (model.PriceSeries, error) {
		return model.PriceSeries{}, errors.New("boom")
	}}
}

func succeeding(name string, n int) *stubAdapter {
	return &stubAdapter{name: name, series: func(string) (model.PriceSeries, error) {
		s := bars(n)
		s.Provider = name
		return s, nil
	}}
}

func mustSymbol(t *testing.T, raw string) symbol.Symbol {
	t.Helper()
	sym, err := symbol.NewCodec().Parse(raw)
	require.NoError(t, err)
	return sym
}

func TestFallback_StopsAtFirstSuccess(t *testing.T) {
	a, b, c := failing("a"), succeeding("b", 10), succeeding("c", 10)
	fb := NewFallback([]Adapter{a, b, c}, time.Second, zerolog.Nop())

	series, err := fb.Fetch(context.Background(), mustSymbol(t, "PETR4"), 30)
	require.NoError(t, err)

	assert.Equal(t, "b", series.Provider)
	assert.Equal(t, "PETR4", series.Symbol)
	assert.Equal(t, []string{"PETR4"}, a.Calls())
	assert.Equal(t, []string{"PETR4"}, b.Calls())
	assert.Empty(t, c.Calls(), "adapters after the first success must not be called")
}

func TestFallback_PriorityOrder(t *testing.T) {
	tests := []struct {
		name      string
		adapters  func() []*stubAdapter
		wantName  string
		wantBars  int
		uncalled  []int
	}{
		{
			name: "failure then empty then success",
			adapters: func() []*stubAdapter {
				return []*stubAdapter{failing("a"), succeeding("b", 0), succeeding("c", 10), succeeding("d", 5)}
			},
			wantName: "c",
			wantBars: 10,
			uncalled: []int{3},
		},
		{
			name: "first adapter wins",
			adapters: func() []*stubAdapter {
				return []*stubAdapter{succeeding("a", 7), failing("b"), succeeding("c", 10)}
			},
			wantName: "a",
			wantBars: 7,
			uncalled: []int{1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubs := tt.adapters()
			adapters := make([]Adapter, len(stubs))
			for i, s := range stubs {
				adapters[i] = s
			}
			fb := NewFallback(adapters, time.Second, zerolog.Nop())

			series, err := fb.Fetch(context.Background(), mustSymbol(t, "PETR4"), 30)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, series.Provider)
			assert.Equal(t, tt.wantBars, series.Len())
			for _, i := range tt.uncalled {
				assert.Empty(t, stubs[i].Calls(), "adapter %s", stubs[i].name)
			}
		})
	}
}

func TestFallback_EmptySeriesIsFailure(t *testing.T) {
	empty := succeeding("empty", 0)
	next := succeeding("next", 5)
	fb := NewFallback([]Adapter{empty, next}, time.Second, zerolog.Nop())

	series, err := fb.Fetch(context.Background(), mustSymbol(t, "VALE3"), 30)
	require.NoError(t, err)
	assert.Equal(t, "next", series.Provider)
}

func TestFallback_FractionalTriesBaseCodeBeforeNextAdapter(t *testing.T) {
	a := &stubAdapter{name: "a", series: func(code string) (model.PriceSeries, error) {
		if code == "PETR4" {
			s := bars(6)
			s.Provider = "a"
			return s, nil
		}
		return model.PriceSeries{}, errors.New("fractional not listed")
	}}
	b := succeeding("b", 6)
	fb := NewFallback([]Adapter{a, b}, time.Second, zerolog.Nop())

	series, err := fb.Fetch(context.Background(), mustSymbol(t, "petr4f"), 30)
	require.NoError(t, err)

	assert.Equal(t, "a", series.Provider)
	assert.Equal(t, "PETR4F", series.Symbol)
	assert.Equal(t, []string{"PETR4F", "PETR4"}, a.Calls())
	assert.Empty(t, b.Calls())
}

func TestFallback_RecoversPanics(t *testing.T) {
	bad := &stubAdapter{name: "bad", series: func(string) (model.PriceSeries, error) { panic("nil map") }}
	good := succeeding("good", 5)
	fb := NewFallback([]Adapter{bad, good}, time.Second, zerolog.Nop())

	series, err := fb.Fetch(context.Background(), mustSymbol(t, "ITUB4"), 30)
	require.NoError(t, err)
	assert.Equal(t, "good", series.Provider)

	stats := fb.Stats()
	assert.Equal(t, int64(1), stats[0].Failures)
	assert.Contains(t, stats[0].LastError, "panicked")
}

func TestFallback_PerAdapterTimeout(t *testing.T) {
	slow := &slowAdapter{}
	good := succeeding("good", 5)
	fb := NewFallback([]Adapter{slow, good}, 20*time.Millisecond, zerolog.Nop())

	start := time.Now()
	series, err := fb.Fetch(context.Background(), mustSymbol(t, "ABEV3"), 30)
	require.NoError(t, err)
	assert.Equal(t, "good", series.Provider)
	assert.Less(t, time.Since(start), time.Second)
}

type slowAdapter struct{}

func (slowAdapter) Name() string { return "slow" }

func (slowAdapter) Fetch(ctx context.Context, code string, days int) (model.PriceSeries, error) {
	<-ctx.Done()
	return model.PriceSeries{}, ctx.Err()
}

func TestFallback_CancelledContextStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &stubAdapter{name: "a", series: func(string) (model.PriceSeries, error) {
		cancel()
		return model.PriceSeries{}, context.Canceled
	}}
	b := succeeding("b", 5)
	fb := NewFallback([]Adapter{a, b}, time.Second, zerolog.Nop())

	_, err := fb.Fetch(ctx, mustSymbol(t, "BBDC4"), 30)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, b.Calls())
}

func TestFallback_Exhausted(t *testing.T) {
	fb := NewFallback([]Adapter{failing("a"), failing("b")}, time.Second, zerolog.Nop())
	_, err := fb.Fetch(context.Background(), mustSymbol(t, "MGLU3"), 30)
	assert.ErrorIs(t, err, ErrAllProvidersExhausted)
}

func TestFallback_SyntheticTerminalNeverFails(t *testing.T) {
	fb := NewFallback([]Adapter{failing("a"), NewSynthetic()}, time.Second, zerolog.Nop())
	series, err := fb.Fetch(context.Background(), mustSymbol(t, "QWER3"), 30)
	require.NoError(t, err)
	assert.Equal(t, model.SourceSimulated, series.Source)
	assert.GreaterOrEqual(t, series.Len(), MinSyntheticBars)
}

func TestFallback_Stats(t *testing.T) {
	a, b := failing("a"), succeeding("b", 5)
	fb := NewFallback([]Adapter{a, b}, time.Second, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := fb.Fetch(context.Background(), mustSymbol(t, "WEGE3"), 30)
		require.NoError(t, err)
	}

	stats := fb.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, AdapterStats{Name: "a", Priority: 1, Requests: 3, Failures: 3, LastUsed: stats[0].LastUsed, LastError: "boom"}, stats[0])
	assert.Equal(t, "b", stats[1].Name)
	assert.Equal(t, 2, stats[1].Priority)
	assert.Equal(t, int64(3), stats[1].Successes)
	assert.False(t, stats[1].LastUsed.IsZero())
	assert.Equal(t, []string{"a", "b"}, fb.Names())
}

func TestFallback_ProbeCallsEveryAdapter(t *testing.T) {
	a, b := failing("a"), succeeding("b", 7)
	fb := NewFallback([]Adapter{a, b}, time.Second, zerolog.Nop())

	results := fb.Probe(context.Background(), []string{"PETR4", "VALE3"}, 7)
	require.Len(t, results, 4)

	assert.Equal(t, ProbeResult{Provider: "a", Priority: 1, Symbol: "PETR4", Error: "boom"}, results[0])
	assert.Equal(t, ProbeResult{Provider: "b", Priority: 2, Symbol: "VALE3", Success: true, Bars: 7}, results[3])
	assert.Len(t, b.Calls(), 2)
	assert.Zero(t, fb.Stats()[0].Requests, "probe must not count as usage")
}
