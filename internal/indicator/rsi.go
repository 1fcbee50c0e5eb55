package indicator

import "errors"

// ErrInsufficientData is returned when a series is too short to analyze.
var ErrInsufficientData = errors.New("insufficient data")

// DefaultRSIPeriod is the standard RSI lookback.
const DefaultRSIPeriod = 14

// rsiWindow returns how many deltas to average for n closes.
func rsiWindow(n, period int) int {
	deltas := n - 1
	switch {
	case deltas >= period:
		return period
	case deltas >= 10:
		return 10
	default:
		return min(5, deltas)
	}
}

// CalculateRSI averages gains and losses over the last window deltas with a plain
// arithmetic mean (no Wilder smoothing). Shorter series use a reduced window.
func CalculateRSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(closes) < 2 {
		return 0, ErrInsufficientData
	}
	window := rsiWindow(len(closes), period)

	var gains, losses float64
	for i := len(closes) - window; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(window)
	avgLoss := losses / float64(window)

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0, nil
		}
		return 100.0, nil
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs), nil
}
