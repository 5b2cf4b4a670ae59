package seasonality

import "errors"

// CalculateSMA computes the simple moving average of the last period values.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// MovingAverage returns the trailing SMA at every index.
// Entries before the window is filled are nil.
func MovingAverage(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		ma, err := CalculateSMA(values[:i+1], window)
		if err != nil {
			continue
		}
		out[i] = &ma
	}
	return out
}
