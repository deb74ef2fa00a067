// Package pattern maps the shape of the last few candles to named
// candlestick patterns with a score contribution.
package pattern

import (
	"math"

	"KabuScout/internal/model"
)

type candle model.OHLCV

func (c candle) body() float64      { return math.Abs(c.Close - c.Open) }
func (c candle) span() float64      { return c.High - c.Low }
func (c candle) bullish() bool      { return c.Close > c.Open }
func (c candle) bearish() bool      { return c.Close < c.Open }
func (c candle) bodyTop() float64   { return math.Max(c.Open, c.Close) }
func (c candle) bodyLow() float64   { return math.Min(c.Open, c.Close) }
func (c candle) upperWick() float64 { return c.High - c.bodyTop() }
func (c candle) lowerWick() float64 { return c.bodyLow() - c.Low }
func (c candle) midBody() float64   { return (c.Open + c.Close) / 2 }

// long reports a body covering most of the candle's range.
func (c candle) long() bool { return c.span() > 0 && c.body() >= 0.6*c.span() }

type rule struct {
	pattern model.Pattern
	bars    int
	match   func(cs []candle) bool
}

// Detector checks candlestick rules in priority order.
type Detector struct {
	rules []rule
}

// NewDetector returns a Detector with the default rule set.
func NewDetector() *Detector {
	return &Detector{rules: defaultRules()}
}

// Detect returns the first matching pattern over the tail of bars, or nil.
func (d *Detector) Detect(bars []model.OHLCV) *model.Pattern {
	for _, r := range d.rules {
		if len(bars) < r.bars {
			continue
		}
		tail := make([]candle, r.bars)
		for i, b := range bars[len(bars)-r.bars:] {
			tail[i] = candle(b)
		}
		if r.match(tail) {
			p := r.pattern
			return &p
		}
	}
	return nil
}

func defaultRules() []rule {
	return []rule{
		{model.Pattern{Name: "morning_star", Label: "明けの明星", Signal: 1, Points: 15}, 3, morningStar},
		{model.Pattern{Name: "evening_star", Label: "宵の明星", Signal: -1, Points: -15}, 3, eveningStar},
		{model.Pattern{Name: "three_white_soldiers", Label: "赤三兵", Signal: 1, Points: 12}, 3, threeWhiteSoldiers},
		{model.Pattern{Name: "three_black_crows", Label: "黒三兵", Signal: -1, Points: -12}, 3, threeBlackCrows},
		{model.Pattern{Name: "bullish_engulfing", Label: "陽の包み線", Signal: 1, Points: 10}, 2, bullishEngulfing},
		{model.Pattern{Name: "bearish_engulfing", Label: "陰の包み線", Signal: -1, Points: -10}, 2, bearishEngulfing},
		{model.Pattern{Name: "hammer", Label: "たくり線", Signal: 1, Points: 8}, 4, hammer},
		{model.Pattern{Name: "shooting_star", Label: "トンカチ", Signal: -1, Points: -8}, 4, shootingStar},
	}
}

func morningStar(cs []candle) bool {
	first, star, last := cs[0], cs[1], cs[2]
	return first.bearish() && first.long() &&
		star.body() <= 0.3*first.body() &&
		star.bodyTop() <= first.Close &&
		last.bullish() && last.Close > first.midBody()
}

func eveningStar(cs []candle) bool {
	first, star, last := cs[0], cs[1], cs[2]
	return first.bullish() && first.long() &&
		star.body() <= 0.3*first.body() &&
		star.bodyLow() >= first.Close &&
		last.bearish() && last.Close < first.midBody()
}

func threeWhiteSoldiers(cs []candle) bool {
	for i, c := range cs {
		if !c.bullish() || !c.long() {
			return false
		}
		if i == 0 {
			continue
		}
		prev := cs[i-1]
		if c.Close <= prev.Close || c.Open < prev.Open || c.Open > prev.Close {
			return false
		}
	}
	return true
}

func threeBlackCrows(cs []candle) bool {
	for i, c := range cs {
		if !c.bearish() || !c.long() {
			return false
		}
		if i == 0 {
			continue
		}
		prev := cs[i-1]
		if c.Close >= prev.Close || c.Open > prev.Open || c.Open < prev.Close {
			return false
		}
	}
	return true
}

func bullishEngulfing(cs []candle) bool {
	prev, curr := cs[0], cs[1]
	return prev.bearish() && curr.bullish() &&
		curr.Open <= prev.Close && curr.Close > prev.Open
}

func bearishEngulfing(cs []candle) bool {
	prev, curr := cs[0], cs[1]
	return prev.bullish() && curr.bearish() &&
		curr.Open >= prev.Close && curr.Close < prev.Open
}

// hammer: long lower shadow after three falling closes.
func hammer(cs []candle) bool {
	c := cs[3]
	if c.span() == 0 || !(cs[0].Close > cs[1].Close && cs[1].Close > cs[2].Close) {
		return false
	}
	return c.lowerWick() >= 2*c.body() && c.lowerWick() >= 0.6*c.span() &&
		c.upperWick() <= 0.1*c.span()
}

// shootingStar: long upper shadow after three rising closes.
func shootingStar(cs []candle) bool {
	c := cs[3]
	if c.span() == 0 || !(cs[0].Close < cs[1].Close && cs[1].Close < cs[2].Close) {
		return false
	}
	return c.upperWick() >= 2*c.body() && c.upperWick() >= 0.6*c.span() &&
		c.lowerWick() <= 0.1*c.span()
}
