package calculator

import (
	"errors"
	"math"

	"KabuScout/internal/model"
)

// ErrInsufficientData is returned when a series is shorter than an indicator needs.
var ErrInsufficientData = errors.New("not enough data")

var errBadPeriod = errors.New("period must be positive")

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errBadPeriod
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// EMASeries computes the recursive exponential moving average with
// alpha = 2/(span+1), seeded with the first price.
func EMASeries(prices []float64, span int) []float64 {
	if len(prices) == 0 || span <= 0 {
		return nil
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(prices))
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = alpha*prices[i] + (1-alpha)*out[i-1]
	}
	return out
}

// Closes extracts close prices from bars.
func Closes(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the last element of a series, or NaN when empty.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

// Prev returns the element before the last one, or NaN.
func Prev(series []float64) float64 {
	if len(series) < 2 {
		return math.NaN()
	}
	return series[len(series)-2]
}
