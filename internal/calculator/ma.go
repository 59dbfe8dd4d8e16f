package calculator

import (
	"errors"
)

// CalculateSMA computes the simple moving average of the trailing period prices.
// The sum runs over offsets from the window's first element, so a flat window
// returns that element exactly.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	window := prices[len(prices)-period:]
	base := window[0]
	sum := 0.0
	for _, p := range window {
		sum += p - base
	}
	return base + sum/float64(period), nil
}
