package calculator

import (
	"errors"
	"math"

	"KabuScout/internal/model"
)

// SupportResistance returns the lowest low and highest high of the most
// recent `window` bars.
func SupportResistance(bars []model.OHLCV, window int) (support, resistance float64, err error) {
	if window <= 0 {
		return 0, 0, errBadPeriod
	}
	if len(bars) < window {
		return 0, 0, ErrInsufficientData
	}
	support = math.Inf(1)
	resistance = math.Inf(-1)
	for _, b := range bars[len(bars)-window:] {
		if b.High > resistance {
			resistance = b.High
		}
		if b.Low < support {
			support = b.Low
		}
	}
	return support, resistance, nil
}

// RangePosition returns where the current price sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// VolumeRatio returns the last bar's volume over the mean volume of the
// `window` bars before it, along with that mean.
func VolumeRatio(bars []model.OHLCV, window int) (ratio, avg float64, err error) {
	if window <= 0 {
		return 0, 0, errBadPeriod
	}
	if len(bars) < window+1 {
		return 0, 0, ErrInsufficientData
	}
	n := len(bars)
	for _, b := range bars[n-1-window : n-1] {
		avg += b.Volume
	}
	avg /= float64(window)
	if avg == 0 {
		return 0, 0, nil // untraded window
	}
	return bars[n-1].Volume / avg, avg, nil
}
