// Package analyzer turns a symbol into an AnalysisResult by fetching history,
// computing indicators and applying the recommendation ladders.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"StockSentinel/internal/indicator"
	"StockSentinel/internal/metrics"
	"StockSentinel/internal/model"
	"StockSentinel/internal/provider"
	"StockSentinel/internal/strategy"
	"StockSentinel/internal/symbol"
)

// ErrInsufficientData is returned when fewer than indicator.MinBars bars
// could be obtained. It is the same value as indicator.ErrInsufficientData.
var ErrInsufficientData = indicator.ErrInsufficientData

var (
	stopLossFactor   = decimal.RequireFromString("0.97")
	takeProfitFactor = decimal.RequireFromString("1.05")
)

// Fetcher supplies price history for a parsed symbol.
type Fetcher interface {
	Fetch(ctx context.Context, sym symbol.Symbol, days int) (model.PriceSeries, error)
}

// Analyzer computes fresh analyses. It does no caching.
type Analyzer struct {
	fetcher Fetcher
	days    int
	log     zerolog.Logger
	now     func() time.Time
}

// New creates an Analyzer requesting days of history per symbol.
func New(fetcher Fetcher, days int, log zerolog.Logger) *Analyzer {
	if days < indicator.MinBars {
		days = indicator.MinBars
	}
	return &Analyzer{fetcher: fetcher, days: days, log: log, now: time.Now}
}

// Analyze fetches history for sym and produces a full result.
func (a *Analyzer) Analyze(ctx context.Context, sym symbol.Symbol) (model.AnalysisResult, error) {
	start := time.Now()
	defer func() { metrics.AnalysisDuration.Observe(time.Since(start).Seconds()) }()

	series, err := a.fetcher.Fetch(ctx, sym, a.days)
	if err != nil {
		if errors.Is(err, provider.ErrAllProvidersExhausted) {
			metrics.AnalysisErrors.WithLabelValues("insufficient_data").Inc()
			return model.AnalysisResult{}, fmt.Errorf("%w: %v", ErrInsufficientData, err)
		}
		metrics.AnalysisErrors.WithLabelValues("fetch").Inc()
		return model.AnalysisResult{}, fmt.Errorf("fetch %s: %w", sym.Code, err)
	}

	snap, err := indicator.Compute(series)
	if err != nil {
		metrics.AnalysisErrors.WithLabelValues("insufficient_data").Inc()
		return model.AnalysisResult{}, err
	}

	rec := strategy.Recommend(snap, strategy.Context{
		DisplayCode: sym.Code,
		Fractional:  sym.IsFractional,
		Known:       sym.IsKnown,
		Source:      series.Source,
	})

	res := Build(sym, series, snap, rec, a.now())
	metrics.AnalysesTotal.WithLabelValues(string(res.DataSource)).Inc()
	metrics.Recommendations.WithLabelValues(string(res.NewSignal)).Inc()
	if res.CurrentSignal == model.Sell {
		metrics.Recommendations.WithLabelValues(string(model.Sell)).Inc()
	}
	a.log.Debug().
		Str("symbol", res.Symbol).
		Str("provider", res.Provider).
		Float64("rsi", res.RSI).
		Str("current", string(res.CurrentSignal)).
		Str("new", string(res.NewSignal)).
		Msg("analysis computed")
	return res, nil
}

// Build assembles an AnalysisResult, rounding prices and percentages to two
// decimals and the MACD histogram to four.
func Build(sym symbol.Symbol, series model.PriceSeries, snap indicator.Snapshot, rec strategy.Recommendation, at time.Time) model.AnalysisResult {
	price := decimal.NewFromFloat(snap.Price)
	conditions := make([]string, len(rec.Conditions))
	copy(conditions, rec.Conditions)

	return model.AnalysisResult{
		Symbol:          sym.Code,
		RawSymbol:       sym.Code,
		IsFractional:    sym.IsFractional,
		Price:           price.Round(2).InexactFloat64(),
		StopLoss:        price.Mul(stopLossFactor).Round(2).InexactFloat64(),
		TakeProfit:      price.Mul(takeProfitFactor).Round(2).InexactFloat64(),
		PeriodReturnPct: round(snap.PeriodReturn, 2),
		RSI:             round(snap.RSI, 2),
		MACDHistogram:   round(snap.MACDHistogram, 4),
		Trend:           snap.Trend,
		CurrentSignal:   rec.Current,
		NewSignal:       rec.New,
		Conditions:      conditions,
		DataSource:      series.Source,
		Provider:        series.Provider,
		ComputedAt:      at,
	}
}

// Placeholder is the neutral result returned to on-demand callers when an
// analysis fails. It is never cached.
func Placeholder(raw string, cause error, at time.Time) model.AnalysisResult {
	code, err := symbol.Normalize(raw)
	if err != nil {
		code = raw
	}
	conditions := []string{"❌ Technical analysis failed"}
	if cause != nil {
		conditions = append(conditions, "🔧 Details: "+cause.Error())
	}
	conditions = append(conditions, "📋 Showing fallback data")

	return model.AnalysisResult{
		Symbol:        code,
		RawSymbol:     raw,
		IsFractional:  symbol.IsFractional(code),
		Price:         25.00,
		StopLoss:      24.25,
		TakeProfit:    26.25,
		RSI:           50,
		Trend:         model.TrendNeutral,
		CurrentSignal: model.Hold,
		NewSignal:     model.Wait,
		Conditions:    conditions,
		DataSource:    model.SourceFallback,
		ComputedAt:    at,
	}
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
