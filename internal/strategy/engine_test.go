package strategy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSentinel/internal/indicator"
	"StockSentinel/internal/model"
)

func snapshot(rsi, macd float64, trend model.Trend) indicator.Snapshot {
	return indicator.Snapshot{
		Price:         10,
		RSI:           rsi,
		MACDHistogram: macd,
		Trend:         trend,
		MAWindow:      20,
	}
}

var external = Context{DisplayCode: "PETR4", Known: true, Source: model.SourceExternal}

func TestRecommend_CurrentSignal(t *testing.T) {
	tests := []struct {
		name  string
		rsi   float64
		macd  float64
		trend model.Trend
		want  model.CurrentSignal
	}{
		{"extreme overbought", 86, 0.5, model.TrendUp, model.Sell},
		{"rsi exactly 85 holds", 85, 0, model.TrendUp, model.Hold},
		{"overbought negative momentum", 82, -0.2, model.TrendUp, model.Sell},
		{"overbought mild momentum holds", 82, -0.05, model.TrendUp, model.Hold},
		{"strong negative momentum downtrend", 50, -0.3, model.TrendDown, model.Sell},
		{"strong negative momentum uptrend holds", 50, -0.3, model.TrendUp, model.Hold},
		{"possible reversal", 40, 0.1, model.TrendDown, model.Hold},
		{"default", 55, 0, model.TrendUp, model.Hold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Recommend(snapshot(tt.rsi, tt.macd, tt.trend), external)
			assert.Equal(t, tt.want, rec.Current)
		})
	}
}

func TestRecommend_NewSignal(t *testing.T) {
	tests := []struct {
		name  string
		rsi   float64
		macd  float64
		trend model.Trend
		want  model.NewSignal
		rule  string
	}{
		{"very low rsi", 30, -1, model.TrendDown, model.Buy, "very low RSI"},
		{"low rsi positive macd uptrend", 40, 0.01, model.TrendUp, model.Buy, "low RSI + positive MACD"},
		{"multiple favourable", 48, 0.06, model.TrendUp, model.Buy, "multiple favourable"},
		{"strong macd uptrend", 55, 0.2, model.TrendUp, model.Buy, "strong MACD + uptrend"},
		{"uptrend good macd", 65, 0.05, model.TrendUp, model.Watch, "uptrend + good MACD"},
		{"moderate rsi uptrend", 58, -0.01, model.TrendUp, model.Watch, "moderate RSI + uptrend"},
		{"strong macd without trend", 60, 0.09, model.TrendDown, model.Watch, "WATCH: strong MACD"},
		{"uptrend only", 65, -0.1, model.TrendUp, model.Consider, "CONSIDER: uptrend"},
		{"moderate rsi neutral macd", 60, -0.01, model.TrendDown, model.Consider, "neutral MACD"},
		{"mixed positive", 72, 0.05, model.TrendDown, model.Consider, "mixed positive"},
		{"nothing matches", 68, -0.5, model.TrendDown, model.Wait, ""},
		{"overbought downtrend", 90, -0.5, model.TrendDown, model.Wait, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Recommend(snapshot(tt.rsi, tt.macd, tt.trend), external)
			assert.Equal(t, tt.want, rec.New)
			if tt.rule != "" {
				assert.True(t, containsSubstring(rec.Conditions, tt.rule), "conditions %v missing %q", rec.Conditions, tt.rule)
			}
		})
	}
}

func TestRecommend_FirstMatchWins(t *testing.T) {
	// rsi<45, macd>0, UP satisfies rules 2, 3 and 4; only rule 2 is reported.
	rec := Recommend(snapshot(40, 0.2, model.TrendUp), external)
	require.Equal(t, model.Buy, rec.New)
	assert.True(t, containsSubstring(rec.Conditions, "low RSI + positive MACD"))
	assert.False(t, containsSubstring(rec.Conditions, "multiple favourable"))
	assert.False(t, containsSubstring(rec.Conditions, "strong MACD + uptrend"))

	r, ok := FirstMatch(EntryRules, Inputs{RSI: 55, MACD: 0.2, Trend: model.TrendUp})
	require.True(t, ok)
	assert.Equal(t, "strong-macd-uptrend", r.Name)
}

func TestRecommend_InformationalConditions(t *testing.T) {
	snap := snapshot(50, 0.01, model.TrendDown)
	snap.HasVolume = true
	snap.VolumeRatio = 2

	rec := Recommend(snap, Context{DisplayCode: "VALE3F", Fractional: true, Known: false, Source: model.SourceSimulated})

	require.GreaterOrEqual(t, len(rec.Conditions), 6)
	assert.Contains(t, rec.Conditions[0], "Fractional share (VALE3F)")
	assert.Contains(t, rec.Conditions[1], "simulated data")
	assert.Contains(t, rec.Conditions[2], "not found in reference list")
	assert.Contains(t, rec.Conditions[3], "RSI neutral (50.0)")
	assert.Contains(t, rec.Conditions[len(rec.Conditions)-1], "Volume above average")
}

func TestRecommend_VolumeThresholds(t *testing.T) {
	for _, tc := range []struct {
		ratio float64
		want  string
	}{
		{0.4, "Volume below average"},
		{1.0, ""},
		{1.6, "Volume above average"},
	} {
		snap := snapshot(50, 0, model.TrendUp)
		snap.HasVolume = true
		snap.VolumeRatio = tc.ratio
		rec := Recommend(snap, external)
		last := rec.Conditions[len(rec.Conditions)-1]
		if tc.want == "" {
			assert.NotContains(t, last, "Volume", "ratio %.1f", tc.ratio)
		} else {
			assert.Contains(t, last, tc.want, "ratio %.1f", tc.ratio)
		}
	}
}

func TestRecommend_Descriptive(t *testing.T) {
	rec := Recommend(snapshot(25, -0.1, model.TrendDown), external)
	assert.True(t, containsSubstring(rec.Conditions, "oversold (25.0)"))
	assert.True(t, containsSubstring(rec.Conditions, "MACD negative"))
	assert.True(t, containsSubstring(rec.Conditions, "below moving average (20 periods)"))
	assert.True(t, containsSubstring(rec.Conditions, "Data from external provider"))

	rec = Recommend(snapshot(75, 0.1, model.TrendUp), external)
	assert.True(t, containsSubstring(rec.Conditions, "overbought (75.0)"))
	assert.True(t, containsSubstring(rec.Conditions, "MACD positive"))
}

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
