package strategy

import (
	"fmt"

	"KabuScout/internal/model"
)

// Factor is one boolean-gated score contribution. It returns nil when the
// condition does not hold.
type Factor func(ind *model.Indicators, pat *model.Pattern) *model.FactorScore

// Profile parameterises data requirements, indicator windows, factors and
// judgement thresholds for one scan mode.
type Profile struct {
	Mode     model.Mode
	Period   string // provider range, e.g. "6mo"
	Interval string // provider interval, e.g. "1d"
	MinBars  int

	RSIPeriod int
	SRWindow  int
	MAShort   int
	MAMid     int
	MALong    int

	Base       float64
	StrongBuy  float64
	Buy        float64
	Sell       float64
	StrongSell float64

	// Table cut-offs: buys list score >= BuyList, sells list score <= SellList.
	BuyList  float64
	SellList float64

	Factors []Factor
}

// ValueProfile looks for pullbacks in slow-moving value stocks.
func ValueProfile() *Profile {
	return &Profile{
		Mode: model.ModeValue, Period: "6mo", Interval: "1d", MinBars: 60,
		RSIPeriod: 14, SRWindow: 50, MAShort: 5, MAMid: 25, MALong: 75,
		Base: 50, StrongBuy: 80, Buy: 70, Sell: 30, StrongSell: 20,
		BuyList: 65, SellList: 35,
		Factors: []Factor{
			rsiOversold(35, 45, 20, 10),
			macdRebound(15),
			rsiOverbought(75, 65, 20, 10),
		},
	}
}

// SwingProfile adds trend, crossover and pattern factors on daily bars.
func SwingProfile() *Profile {
	return &Profile{
		Mode: model.ModeSwing, Period: "1y", Interval: "1d", MinBars: 80,
		RSIPeriod: 14, SRWindow: 20, MAShort: 5, MAMid: 25, MALong: 75,
		Base: 50, StrongBuy: 80, Buy: 70, Sell: 30, StrongSell: 20,
		BuyList: 65, SellList: 35,
		Factors: []Factor{
			rsiOversold(35, 45, 20, 10),
			macdRebound(15),
			rsiOverbought(75, 65, 20, 10),
			macdCross(15),
			maAlignment(10),
			haTrend(3, 5),
			srProximity(0.03, 5),
			candlePattern(),
		},
	}
}

// DayTradeProfile works on 5-minute bars of the last few sessions.
func DayTradeProfile() *Profile {
	return &Profile{
		Mode: model.ModeDayTrade, Period: "5d", Interval: "5m", MinBars: 60,
		RSIPeriod: 14, SRWindow: 20, MAShort: 5, MAMid: 25, MALong: 0,
		Base: 50, StrongBuy: 80, Buy: 70, Sell: 30, StrongSell: 20,
		BuyList: 65, SellList: 35,
		Factors: []Factor{
			rsiOversold(30, 0, 20, 0),
			rsiOverbought(70, 0, 20, 0),
			macdCross(15),
			haTrend(3, 10),
			volumeSpike(2.0, 5),
			candlePattern(),
		},
	}
}

// ProfileFor returns the built-in profile for a mode.
func ProfileFor(mode model.Mode) (*Profile, error) {
	switch mode {
	case model.ModeValue, "":
		return ValueProfile(), nil
	case model.ModeSwing:
		return SwingProfile(), nil
	case model.ModeDayTrade:
		return DayTradeProfile(), nil
	}
	return nil, fmt.Errorf("no profile for mode %q", mode)
}
