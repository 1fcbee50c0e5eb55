package indicator

import (
	"errors"

	"StockSentinel/internal/model"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// TrendWindow picks the moving-average window for n closes: 20, then 10, else min(5, n).
func TrendWindow(n int) int {
	switch {
	case n >= 20:
		return 20
	case n >= 10:
		return 10
	default:
		return min(5, n)
	}
}

// CalculateTrend compares the last close with an adaptive moving average.
// It returns the trend, the average used and the window length.
func CalculateTrend(closes []float64) (model.Trend, float64, int, error) {
	if len(closes) == 0 {
		return "", 0, 0, ErrInsufficientData
	}
	window := TrendWindow(len(closes))
	ma, err := CalculateSMA(closes, window)
	if err != nil {
		return "", 0, 0, err
	}
	if closes[len(closes)-1] > ma {
		return model.TrendUp, ma, window, nil
	}
	return model.TrendDown, ma, window, nil
}

// PeriodReturn is the percentage change from the first to the last close.
func PeriodReturn(closes []float64) (float64, error) {
	if len(closes) == 0 {
		return 0, ErrInsufficientData
	}
	first := closes[0]
	if first == 0 {
		return 0, errors.New("first close is zero")
	}
	return (closes[len(closes)-1] - first) / first * 100, nil
}

// VolumeRatio divides the last volume by the mean of the last five volumes.
// ok is false when there is no usable volume.
func VolumeRatio(volumes []float64) (ratio float64, ok bool) {
	if len(volumes) == 0 {
		return 0, false
	}
	avg, err := CalculateSMA(volumes, min(5, len(volumes)))
	if err != nil || avg <= 0 {
		return 0, false
	}
	return volumes[len(volumes)-1] / avg, true
}
