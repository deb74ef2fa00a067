package calculator

import (
	"math"

	"KabuScout/internal/model"
)

// RSISeries computes the rolling-mean RSI: average gain and loss are the
// plain mean of the last `period` price changes. The first `period`
// entries are NaN.
func RSISeries(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errBadPeriod
	}
	if len(closes) < period+1 {
		return nil, ErrInsufficientData
	}

	out := make([]float64, len(closes))
	for i := range out {
		if i < period {
			out[i] = math.NaN()
			continue
		}
		var gain, loss float64
		for j := i - period + 1; j <= i; j++ {
			change := closes[j] - closes[j-1]
			if change > 0 {
				gain += change
			} else {
				loss -= change
			}
		}
		out[i] = rsiFromAverages(gain/float64(period), loss/float64(period))
	}
	return out, nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0 // flat window
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// CalculateRSI computes the Wilder-smoothed RSI over the given period.
// Requires at least period+1 bars. Returns 50.0 if data is insufficient.
func CalculateRSI(bars []model.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errBadPeriod
	}
	if len(bars) < period+1 {
		return 50.0, nil // default when data insufficient
	}

	closes := Closes(bars)

	// Initial average gain/loss over the first `period` changes
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	return rsiFromAverages(avgGain, avgLoss), nil
}
