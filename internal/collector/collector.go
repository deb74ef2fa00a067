package collector

import (
	"context"
	"fmt"

	"github.com/phuslu/log"

	"KabuScout/internal/calculator"
	"KabuScout/internal/model"
	"KabuScout/internal/pattern"
	"KabuScout/internal/strategy"
)

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
	volWindow  = 20
)

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher  Fetcher
	Detector *pattern.Detector
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher, Detector: pattern.NewDetector()}
}

// Collect fetches bars for one ticker and computes the profile's indicators
// and the candlestick pattern on the last bars.
func (c *Collector) Collect(ctx context.Context, symbol string, p *strategy.Profile) (*model.Indicators, *model.Pattern, error) {
	bars, err := c.Fetcher.FetchBars(ctx, symbol, p.Period, p.Interval)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch bars: %w", err)
	}
	if len(bars) < p.MinBars {
		return nil, nil, fmt.Errorf("%d bars, need %d: %w", len(bars), p.MinBars, calculator.ErrInsufficientData)
	}
	ind, err := Compute(bars, p)
	if err != nil {
		return nil, nil, err
	}
	return ind, c.Detector.Detect(bars), nil
}

// Compute derives the indicator snapshot from bars.
func Compute(bars []model.OHLCV, p *strategy.Profile) (*model.Indicators, error) {
	closes := calculator.Closes(bars)
	n := len(closes)
	ind := &model.Indicators{CurrentPrice: closes[n-1], Bars: n}
	if n > 1 {
		ind.PrevClose = closes[n-2]
	}

	// RSI and MACD are required; everything else degrades.
	rsi, err := calculator.RSISeries(closes, p.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	ind.RSI = calculator.Last(rsi)
	ind.PrevRSI = calculator.Prev(rsi)
	if p.Interval == "1d" {
		if weekly := AggregateWeekly(bars); len(weekly) > p.RSIPeriod {
			ind.WeeklyRSI, _ = calculator.CalculateRSI(weekly, p.RSIPeriod)
		}
	}

	macd, err := calculator.CalculateMACD(closes, macdFast, macdSlow, macdSignal)
	if err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}
	ind.MACD = calculator.Last(macd.Line)
	ind.MACDSignal = calculator.Last(macd.Signal)
	ind.MACDHist = calculator.Last(macd.Histogram)
	ind.PrevMACDHist = calculator.Prev(macd.Histogram)
	ind.MACDCross = calculator.MACDCross(macd.Histogram)

	ind.MAShort = sma(closes, p.MAShort)
	ind.MAMid = sma(closes, p.MAMid)
	ind.MALong = sma(closes, p.MALong)

	window := p.SRWindow
	if window > n {
		log.Debug().Int("bars", n).Int("window", window).Msg("support/resistance window shortened")
		window = n
	}
	if s, r, err := calculator.SupportResistance(bars, window); err != nil {
		log.Warn().Err(err).Msg("support/resistance calculation failed, using current price")
		ind.Support, ind.Resistance = ind.CurrentPrice, ind.CurrentPrice
	} else {
		ind.Support, ind.Resistance = s, r
	}
	if pos, err := calculator.RangePosition(ind.CurrentPrice, ind.Resistance, ind.Support); err != nil {
		ind.Position = 0.5
	} else {
		ind.Position = pos
	}

	ha := calculator.HeikinAshi(bars)
	ind.HATrend = calculator.HeikinAshiTrend(ha)
	ind.HALast = ha[len(ha)-1]

	if ratio, avg, err := calculator.VolumeRatio(bars, volWindow); err == nil {
		ind.VolumeRatio, ind.AvgVolume = ratio, avg
		ind.VolumeSampled = true
	}
	return ind, nil
}

func sma(closes []float64, period int) float64 {
	if period <= 0 {
		return 0
	}
	v, err := calculator.CalculateSMA(closes, period)
	if err != nil {
		return 0
	}
	return v
}
