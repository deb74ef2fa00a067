package calculator

import "errors"

// MACDResult holds the MACD line, its signal line and the histogram.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// CalculateMACD returns the difference of the fast and slow EMAs, its
// signal EMA and the histogram. Default periods are 12/26/9.
func CalculateMACD(closes []float64, fast, slow, signal int) (*MACDResult, error) {
	if fast <= 0 || signal <= 0 || slow <= fast {
		return nil, errors.New("invalid MACD periods")
	}
	if len(closes) < slow {
		return nil, ErrInsufficientData
	}

	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig := EMASeries(line, signal)
	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return &MACDResult{Line: line, Signal: sig, Histogram: hist}, nil
}

// MACDCross inspects the last two histogram values: +1 when the MACD line
// crossed above its signal on the last bar, -1 when it crossed below.
func MACDCross(hist []float64) int {
	if len(hist) < 2 {
		return 0
	}
	prev, curr := hist[len(hist)-2], hist[len(hist)-1]
	switch {
	case prev <= 0 && curr > 0:
		return 1
	case prev >= 0 && curr < 0:
		return -1
	}
	return 0
}
