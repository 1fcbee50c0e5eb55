// Package indicator holds the pure technical-indicator functions.
package indicator

import (
	"fmt"

	"StockSentinel/internal/model"
)

// MinBars is the shortest series the analysis accepts.
const MinBars = 5

// Snapshot bundles every indicator computed from one series.
type Snapshot struct {
	Price         float64
	RSI           float64
	MACDHistogram float64
	Trend         model.Trend
	MovingAverage float64
	MAWindow      int
	PeriodReturn  float64
	VolumeRatio   float64
	HasVolume     bool
}

// Compute derives a Snapshot from a series of at least MinBars bars.
func Compute(series model.PriceSeries) (Snapshot, error) {
	if series.Len() < MinBars {
		return Snapshot{}, fmt.Errorf("%w: %d bars for %s, need %d", ErrInsufficientData, series.Len(), series.Symbol, MinBars)
	}
	closes := series.Closes()

	rsi, err := CalculateRSI(closes, DefaultRSIPeriod)
	if err != nil {
		return Snapshot{}, fmt.Errorf("rsi: %w", err)
	}
	hist, err := CalculateMACD(closes, DefaultFast, DefaultSlow, DefaultSignal)
	if err != nil {
		return Snapshot{}, fmt.Errorf("macd: %w", err)
	}
	trend, ma, window, err := CalculateTrend(closes)
	if err != nil {
		return Snapshot{}, fmt.Errorf("trend: %w", err)
	}
	ret, err := PeriodReturn(closes)
	if err != nil {
		return Snapshot{}, fmt.Errorf("period return: %w", err)
	}
	ratio, hasVolume := VolumeRatio(series.Volumes())

	return Snapshot{
		Price:         closes[len(closes)-1],
		RSI:           rsi,
		MACDHistogram: hist,
		Trend:         trend,
		MovingAverage: ma,
		MAWindow:      window,
		PeriodReturn:  ret,
		VolumeRatio:   ratio,
		HasVolume:     hasVolume,
	}, nil
}
