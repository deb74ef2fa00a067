package calculator

import (
	"math"

	"KabuScout/internal/model"
)

// HeikinAshi rebuilds the bars as Heikin-Ashi candles.
func HeikinAshi(bars []model.OHLCV) []model.HACandle {
	ha := make([]model.HACandle, len(bars))
	for i, b := range bars {
		c := model.HACandle{Close: (b.Open + b.High + b.Low + b.Close) / 4}
		if i == 0 {
			c.Open = (b.Open + b.Close) / 2
		} else {
			c.Open = (ha[i-1].Open + ha[i-1].Close) / 2
		}
		c.High = math.Max(b.High, math.Max(c.Open, c.Close))
		c.Low = math.Min(b.Low, math.Min(c.Open, c.Close))
		ha[i] = c
	}
	return ha
}

// HeikinAshiTrend returns the number of consecutive same-colour candles
// ending at the last one: positive for bullish, negative for bearish.
// A doji candle (open == close) ends the streak.
func HeikinAshiTrend(ha []model.HACandle) int {
	streak := 0
	for i := len(ha) - 1; i >= 0; i-- {
		c := ha[i]
		switch {
		case c.Close > c.Open && streak >= 0:
			streak++
		case c.Close < c.Open && streak <= 0:
			streak--
		default:
			return streak
		}
	}
	return streak
}
