// Package strategy maps indicator values to holder and entry recommendations.
package strategy

import (
	"fmt"

	"StockSentinel/internal/indicator"
	"StockSentinel/internal/model"
)

// Volume anomaly thresholds relative to the trailing average.
const (
	HighVolumeRatio = 1.5
	LowVolumeRatio  = 0.5
)

// Context carries the informational flags that only add conditions.
type Context struct {
	DisplayCode string
	Fractional  bool
	Known       bool
	Source      model.DataSource
}

// Recommendation is the outcome of Recommend.
type Recommendation struct {
	Current    model.CurrentSignal
	New        model.NewSignal
	Conditions []string
}

// Recommend evaluates the exit ladder and the entry ladders against snap.
func Recommend(snap indicator.Snapshot, ctx Context) Recommendation {
	in := Inputs{RSI: snap.RSI, MACD: snap.MACDHistogram, Trend: snap.Trend}
	rec := Recommendation{Current: model.Hold, New: model.Wait}

	if ctx.Fractional {
		rec.Conditions = append(rec.Conditions, fmt.Sprintf("📊 Fractional share (%s)", ctx.DisplayCode))
	}
	if ctx.Source == model.SourceSimulated {
		rec.Conditions = append(rec.Conditions, "⚠️ Using simulated data (external providers unavailable)")
	} else {
		rec.Conditions = append(rec.Conditions, "✅ Data from external provider")
	}
	if !ctx.Known {
		rec.Conditions = append(rec.Conditions, "⚠️ Symbol not found in reference list")
	}

	rec.Conditions = append(rec.Conditions, describe(snap)...)

	if r, ok := FirstMatch(ExitRules, in); ok {
		rec.Current = r.Outcome
		rec.Conditions = append(rec.Conditions, r.Message)
	}
	if r, ok := FirstMatch(EntryRules, in); ok {
		rec.New = r.Outcome
		rec.Conditions = append(rec.Conditions, r.Message)
	}

	if snap.HasVolume {
		switch {
		case snap.VolumeRatio > HighVolumeRatio:
			rec.Conditions = append(rec.Conditions, "📊 Volume above average (high activity)")
		case snap.VolumeRatio < LowVolumeRatio:
			rec.Conditions = append(rec.Conditions, "📊 Volume below average (low activity)")
		}
	}
	return rec
}

func describe(snap indicator.Snapshot) []string {
	var out []string
	switch {
	case snap.RSI < 30:
		out = append(out, fmt.Sprintf("📉 RSI indicates oversold (%.1f)", snap.RSI))
	case snap.RSI > 70:
		out = append(out, fmt.Sprintf("📈 RSI indicates overbought (%.1f)", snap.RSI))
	default:
		out = append(out, fmt.Sprintf("📊 RSI neutral (%.1f)", snap.RSI))
	}
	if snap.MACDHistogram > 0 {
		out = append(out, "🟢 MACD positive (upward momentum)")
	} else {
		out = append(out, "🔴 MACD negative (downward momentum)")
	}
	if snap.Trend == model.TrendUp {
		out = append(out, fmt.Sprintf("⬆️ Price above moving average (%d periods)", snap.MAWindow))
	} else {
		out = append(out, fmt.Sprintf("⬇️ Price below moving average (%d periods)", snap.MAWindow))
	}
	return out
}
