package model

import "time"

// DataSource tags where a price series (or a result) came from.
type DataSource string

const (
	SourceExternal  DataSource = "external"
	SourceSimulated DataSource = "simulated"
	SourceFallback  DataSource = "fallback"
)

// PriceBar represents a single daily OHLCV candle.
type PriceBar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Valid reports whether all prices are positive and volume is non-negative.
func (b PriceBar) Valid() bool {
	return b.Open > 0 && b.High > 0 && b.Low > 0 && b.Close > 0 && b.Volume >= 0
}

// PriceSeries holds chronologically ordered bars for one symbol.
type PriceSeries struct {
	Symbol    string
	Bars      []PriceBar
	Source    DataSource
	Provider  string
	FetchedAt time.Time
}

// Len returns the number of bars.
func (s PriceSeries) Len() int { return len(s.Bars) }

// Closes extracts closing prices in order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Volumes extracts volumes in order.
func (s PriceSeries) Volumes() []float64 {
	vols := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		vols[i] = b.Volume
	}
	return vols
}
