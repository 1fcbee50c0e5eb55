package indicator

import "errors"

// MACD defaults.
const (
	DefaultFast   = 12
	DefaultSlow   = 26
	DefaultSignal = 9
)

// EMA returns the adjusted exponential moving average for every point, using
// alpha = 2/(span+1) and weights normalized over the observations seen so far.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if span <= 0 {
		return out
	}
	decay := 1 - 2.0/float64(span+1)
	var num, den float64
	for i, v := range values {
		num = v + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

// CalculateMACD returns the latest MACD histogram: (EMA(fast) - EMA(slow)) minus
// its own EMA over signal periods.
func CalculateMACD(closes []float64, fast, slow, signal int) (float64, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return 0, errors.New("periods must be positive")
	}
	if len(closes) == 0 {
		return 0, ErrInsufficientData
	}
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig := EMA(line, signal)
	last := len(closes) - 1
	return line[last] - sig[last], nil
}
