package model

import "time"

// Trend is the price direction relative to its moving average.
type Trend string

const (
	TrendUp   Trend = "UP"
	TrendDown Trend = "DOWN"
	// TrendNeutral only appears on fallback placeholders.
	TrendNeutral Trend = "NEUTRAL"
)

// CurrentSignal is the recommendation for someone already holding the instrument.
type CurrentSignal string

const (
	Hold CurrentSignal = "HOLD"
	Sell CurrentSignal = "SELL"
)

// NewSignal is the recommendation for someone without a position.
type NewSignal string

const (
	Wait     NewSignal = "WAIT"
	Buy      NewSignal = "BUY"
	Watch    NewSignal = "WATCH"
	Consider NewSignal = "CONSIDER"
)

// AnalysisResult is the immutable output of one analysis run.
type AnalysisResult struct {
	Symbol          string        `json:"symbol"`
	RawSymbol       string        `json:"raw_symbol"`
	IsFractional    bool          `json:"is_fractional"`
	Price           float64       `json:"price"`
	StopLoss        float64       `json:"stop_loss"`
	TakeProfit      float64       `json:"take_profit"`
	PeriodReturnPct float64       `json:"period_return_pct"`
	RSI             float64       `json:"rsi"`
	MACDHistogram   float64       `json:"macd"`
	Trend           Trend         `json:"trend"`
	CurrentSignal   CurrentSignal `json:"current_position"`
	NewSignal       NewSignal     `json:"new_position"`
	Conditions      []string      `json:"conditions"`
	DataSource      DataSource    `json:"data_source"`
	Provider        string        `json:"provider,omitempty"`
	ComputedAt      time.Time     `json:"computed_at"`
}

// Clone returns a deep copy so callers never share the conditions slice.
func (r AnalysisResult) Clone() AnalysisResult {
	out := r
	if r.Conditions != nil {
		out.Conditions = make([]string, len(r.Conditions))
		copy(out.Conditions, r.Conditions)
	}
	return out
}
