package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSentinel/internal/model"
)

func fixedSynthetic() *Synthetic {
	s := NewSynthetic()
	s.now = func() time.Time { return time.Date(2024, 6, 14, 15, 0, 0, 0, time.UTC) } // Friday
	return s
}

func TestSynthetic_MinimumBarsAndWeekdays(t *testing.T) {
	series, err := fixedSynthetic().Fetch(context.Background(), "PETR4", 7)
	require.NoError(t, err)

	assert.Equal(t, MinSyntheticBars, series.Len())
	assert.Equal(t, model.SourceSimulated, series.Source)
	assert.Equal(t, "synthetic", series.Provider)
	for i, b := range series.Bars {
		assert.NotEqual(t, time.Saturday, b.Time.Weekday())
		assert.NotEqual(t, time.Sunday, b.Time.Weekday())
		assert.True(t, b.Valid(), "bar %d invalid: %+v", i, b)
		assert.GreaterOrEqual(t, b.High, b.Close)
		assert.LessOrEqual(t, b.Low, b.Close)
		if i > 0 {
			assert.True(t, b.Time.After(series.Bars[i-1].Time))
		}
	}
	assert.Equal(t, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), series.Bars[series.Len()-1].Time)
}

func TestSynthetic_Deterministic(t *testing.T) {
	a, err := fixedSynthetic().Fetch(context.Background(), "WEGE3", 40)
	require.NoError(t, err)
	b, err := fixedSynthetic().Fetch(context.Background(), "WEGE3", 40)
	require.NoError(t, err)

	assert.Equal(t, 40, a.Len())
	assert.Equal(t, a.Closes(), b.Closes())
}

func TestSynthetic_AnchoredPrice(t *testing.T) {
	series, err := fixedSynthetic().Fetch(context.Background(), "VALE3F", 30)
	require.NoError(t, err)

	// Thirty days at 2.5% daily volatility stays well within this band.
	first := series.Bars[0].Close
	assert.InDelta(t, 65.80, first, 65.80*0.05)
	assert.Equal(t, "VALE3F", series.Symbol)
}

func TestSynthetic_UnknownCodePrice(t *testing.T) {
	series, err := fixedSynthetic().Fetch(context.Background(), "ABCD3", 30)
	require.NoError(t, err)
	assert.Greater(t, series.Bars[0].Close, 5.0)
}

func TestSynthetic_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fixedSynthetic().Fetch(ctx, "PETR4", 30)
	assert.ErrorIs(t, err, context.Canceled)
}
