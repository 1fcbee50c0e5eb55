package strategy

import "StockSentinel/internal/model"

// Inputs are the indicator values the ladders are evaluated against.
type Inputs struct {
	RSI   float64
	MACD  float64 // histogram
	Trend model.Trend
}

func (in Inputs) up() bool   { return in.Trend == model.TrendUp }
func (in Inputs) down() bool { return in.Trend == model.TrendDown }

// Rule is one rung of a ladder. Ladders are evaluated top to bottom and the
// first matching rule decides the outcome.
type Rule[T any] struct {
	Name    string
	When    func(Inputs) bool
	Outcome T
	Message string
}

// ExitRules decide the signal for holders. The last rule restates the default.
var ExitRules = []Rule[model.CurrentSignal]{
	{
		Name:    "extreme-overbought",
		When:    func(in Inputs) bool { return in.RSI > 85 },
		Outcome: model.Sell,
		Message: "🚨 SELL: extreme overbought (RSI > 85)",
	},
	{
		Name:    "overbought-negative-momentum",
		When:    func(in Inputs) bool { return in.RSI > 80 && in.MACD < -0.1 },
		Outcome: model.Sell,
		Message: "🚨 SELL: overbought with negative momentum",
	},
	{
		Name:    "strong-negative-momentum",
		When:    func(in Inputs) bool { return in.MACD < -0.25 && in.down() },
		Outcome: model.Sell,
		Message: "🚨 SELL: strongly negative momentum",
	},
	{
		Name:    "possible-reversal",
		When:    func(in Inputs) bool { return in.RSI < 45 && in.MACD > 0 },
		Outcome: model.Hold,
		Message: "💎 HOLD: possible reversal",
	},
}

// BuyRules are the strong entry signals.
var BuyRules = []Rule[model.NewSignal]{
	{
		Name:    "very-low-rsi",
		When:    func(in Inputs) bool { return in.RSI < 35 },
		Outcome: model.Buy,
		Message: "🎯 BUY: very low RSI (< 35)",
	},
	{
		Name:    "low-rsi-positive-macd-uptrend",
		When:    func(in Inputs) bool { return in.RSI < 45 && in.MACD > 0 && in.up() },
		Outcome: model.Buy,
		Message: "🎯 BUY: low RSI + positive MACD + uptrend",
	},
	{
		Name:    "multiple-favourable",
		When:    func(in Inputs) bool { return in.RSI < 50 && in.MACD > 0.05 && in.up() },
		Outcome: model.Buy,
		Message: "🎯 BUY: multiple favourable conditions",
	},
	{
		Name:    "strong-macd-uptrend",
		When:    func(in Inputs) bool { return in.MACD > 0.1 && in.up() },
		Outcome: model.Buy,
		Message: "🎯 BUY: strong MACD + uptrend",
	},
}

// WatchRules only apply when no buy rule matched.
var WatchRules = []Rule[model.NewSignal]{
	{
		Name:    "uptrend-good-macd",
		When:    func(in Inputs) bool { return in.up() && in.MACD > 0.02 },
		Outcome: model.Watch,
		Message: "👀 WATCH: uptrend + good MACD",
	},
	{
		Name:    "moderate-rsi-uptrend",
		When:    func(in Inputs) bool { return in.RSI < 60 && in.up() && in.MACD > -0.05 },
		Outcome: model.Watch,
		Message: "👀 WATCH: moderate RSI + uptrend",
	},
	{
		Name:    "good-rsi-uptrend",
		When:    func(in Inputs) bool { return in.RSI < 55 && in.up() },
		Outcome: model.Watch,
		Message: "👀 WATCH: good RSI + uptrend",
	},
	{
		Name:    "strong-macd",
		When:    func(in Inputs) bool { return in.RSI < 70 && in.MACD > 0.08 },
		Outcome: model.Watch,
		Message: "👀 WATCH: strong MACD",
	},
}

// ConsiderRules only apply when neither buy nor watch matched.
var ConsiderRules = []Rule[model.NewSignal]{
	{
		Name:    "uptrend",
		When:    func(in Inputs) bool { return in.RSI < 70 && in.up() },
		Outcome: model.Consider,
		Message: "🤔 CONSIDER: uptrend",
	},
	{
		Name:    "moderate-rsi-neutral-macd",
		When:    func(in Inputs) bool { return in.RSI < 65 && in.MACD > -0.02 },
		Outcome: model.Consider,
		Message: "🤔 CONSIDER: moderate RSI + neutral MACD",
	},
	{
		Name:    "mixed-positive",
		When:    func(in Inputs) bool { return in.RSI < 75 && in.MACD > 0.03 },
		Outcome: model.Consider,
		Message: "🤔 CONSIDER: mixed positive signals",
	},
}

// EntryRules chains the three entry ladders in priority order.
var EntryRules = concat(BuyRules, WatchRules, ConsiderRules)

func concat[T any](ladders ...[]Rule[T]) []Rule[T] {
	var out []Rule[T]
	for _, l := range ladders {
		out = append(out, l...)
	}
	return out
}

// FirstMatch returns the first rule whose predicate holds.
func FirstMatch[T any](rules []Rule[T], in Inputs) (Rule[T], bool) {
	for _, r := range rules {
		if r.When(in) {
			return r, true
		}
	}
	return Rule[T]{}, false
}
