package calculator

import (
	"errors"
	"math"
)

// CalculateSampleStdDev returns the Bessel-corrected standard deviation of the
// trailing period prices around mean (divides by period-1).
func CalculateSampleStdDev(prices []float64, period int, mean float64) (float64, error) {
	if period < 2 {
		return 0, errors.New("period must be at least 2 for sample standard deviation")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for standard deviation")
	}
	window := prices[len(prices)-period:]
	var ss float64
	for _, p := range window {
		d := p - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(period-1)), nil
}
