package model

import (
	"fmt"
	"time"
)

// Mode selects the scan profile.
type Mode string

const (
	ModeValue    Mode = "value"
	ModeSwing    Mode = "swing"
	ModeDayTrade Mode = "daytrade"
)

// ParseMode accepts the mode names used on the CLI, in Telegram and in the UI.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeValue, ModeSwing, ModeDayTrade:
		return Mode(s), nil
	case "":
		return ModeValue, nil
	case "day", "day-trade":
		return ModeDayTrade, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Label returns the display name of the mode.
func (m Mode) Label() string {
	switch m {
	case ModeSwing:
		return "スイング"
	case ModeDayTrade:
		return "デイトレ"
	default:
		return "バリュー"
	}
}

// Judgement is the discrete buy/sell label derived from the score.
type Judgement string

const (
	StrongBuy  Judgement = "STRONG_BUY"
	Buy        Judgement = "BUY"
	Watch      Judgement = "WATCH"
	Sell       Judgement = "SELL"
	StrongSell Judgement = "STRONG_SELL"
)

// Label returns the display label.
func (j Judgement) Label() string {
	switch j {
	case StrongBuy:
		return "強い買い"
	case Buy:
		return "買い"
	case Sell:
		return "売り"
	case StrongSell:
		return "強い売り"
	default:
		return "様子見"
	}
}

// IsBuy reports whether the judgement is on the buy side.
func (j Judgement) IsBuy() bool { return j == StrongBuy || j == Buy }

// Pattern is a detected candlestick pattern.
type Pattern struct {
	Name   string  `json:"name"`
	Label  string  `json:"label"`
	Signal int     `json:"signal"` // +1 bullish, -1 bearish
	Points float64 `json:"points"`
}

// FactorScore represents a single boolean-gated score contribution.
type FactorScore struct {
	Name       string  `json:"name"`
	Points     float64 `json:"points"`
	Commentary string  `json:"commentary"`
}

// Analysis is the per-ticker result of a scan.
type Analysis struct {
	Ticker       Ticker        `json:"ticker"`
	Mode         Mode          `json:"mode"`
	Indicators   Indicators    `json:"indicators"`
	Pattern      *Pattern      `json:"pattern,omitempty"`
	Factors      []FactorScore `json:"factors"`
	Score        float64       `json:"score"`
	Judgement    Judgement     `json:"judgement"`
	Warnings     []string      `json:"warnings,omitempty"`
	Blocked      bool          `json:"blocked"` // buy judgement withheld by a safety filter
	NextEarnings time.Time     `json:"next_earnings,omitempty"`
	LotCost      float64       `json:"lot_cost"` // price of one 100-share unit
}

// Price is the latest price of the analysed ticker.
func (a *Analysis) Price() float64 { return a.Indicators.CurrentPrice }

// ScanRequest describes one scan action.
type ScanRequest struct {
	Mode     Mode     `json:"mode" validate:"omitempty,oneof=value swing daytrade"`
	MinPrice float64  `json:"min_price" validate:"gte=0"`
	MaxPrice float64  `json:"max_price" validate:"omitempty,gte=0,gtefield=MinPrice"`
	Symbols  []string `json:"symbols,omitempty" validate:"max=500"`
	Sectors  []string `json:"sectors,omitempty"`
}

// InRange reports whether price passes the request's price filter.
// A zero MaxPrice disables the upper bound.
func (r *ScanRequest) InRange(price float64) bool {
	if price < r.MinPrice {
		return false
	}
	return r.MaxPrice == 0 || price <= r.MaxPrice
}

// SkippedTicker records a ticker dropped from the results.
type SkippedTicker struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// ScanReport is the output of one scan.
type ScanReport struct {
	ID        string          `json:"id"`
	Mode      Mode            `json:"mode"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
	Requested int             `json:"requested"`
	Results   []*Analysis     `json:"results"`
	Buys      []*Analysis     `json:"buys"`
	Sells     []*Analysis     `json:"sells"`
	Skipped   []SkippedTicker `json:"skipped,omitempty"`
}
