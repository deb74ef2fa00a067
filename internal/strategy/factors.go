package strategy

import (
	"fmt"
	"math"

	"KabuScout/internal/model"
)

// rsiOversold adds points when RSI is below strong, or below mild.
// A zero mild threshold disables the second step.
func rsiOversold(strong, mild, strongPts, mildPts float64) Factor {
	return func(ind *model.Indicators, _ *model.Pattern) *model.FactorScore {
		switch {
		case ind.RSI < strong:
			return &model.FactorScore{Name: "RSI売られすぎ", Points: strongPts, Commentary: fmt.Sprintf("RSI=%.0f", ind.RSI)}
		case mild > 0 && ind.RSI < mild:
			return &model.FactorScore{Name: "RSI低位", Points: mildPts, Commentary: fmt.Sprintf("RSI=%.0f", ind.RSI)}
		}
		return nil
	}
}

// rsiOverbought subtracts points when RSI is above strong, or above mild.
func rsiOverbought(strong, mild, strongPts, mildPts float64) Factor {
	return func(ind *model.Indicators, _ *model.Pattern) *model.FactorScore {
		switch {
		case ind.RSI > strong:
			return &model.FactorScore{Name: "RSI買われすぎ", Points: -strongPts, Commentary: fmt.Sprintf("RSI=%.0f", ind.RSI)}
		case mild > 0 && ind.RSI > mild:
			return &model.FactorScore{Name: "RSI高位", Points: -mildPts, Commentary: fmt.Sprintf("RSI=%.0f", ind.RSI)}
		}
		return nil
	}
}

// macdRebound: histogram still negative but rising.
func macdRebound(pts float64) Factor {
	return func(ind *model.Indicators, _ *model.Pattern) *model.FactorScore {
		if ind.MACDHist < 0 && ind.HistChange() > 0 {
			return &model.FactorScore{Name: "MACD反発", Points: pts, Commentary: fmt.Sprintf("hist=%.2f (%+.2f)", ind.MACDHist, ind.HistChange())}
		}
		return nil
	}
}

func macdCross(pts float64) Factor {
	return func(ind *model.Indicators, _ *model.Pattern) *model.FactorScore {
		switch ind.MACDCross {
		case 1:
			return &model.FactorScore{Name: "MACDゴールデンクロス", Points: pts}
		case -1:
			return &model.FactorScore{Name: "MACDデッドクロス", Points: -pts}
		}
		return nil
	}
}

// maAlignment: price > MA mid > MA long is bullish, the reverse bearish.
// Skipped when the long average is undefined.
func maAlignment(pts float64) Factor {
	return func(ind *model.Indicators, _ *model.Pattern) *model.FactorScore {
		if ind.MALong == 0 || ind.MAMid == 0 {
			return nil
		}
		switch {
		case ind.CurrentPrice > ind.MAMid && ind.MAMid > ind.MALong:
			return &model.FactorScore{Name: "移動平均線", Points: pts, Commentary: "上昇配列"}
		case ind.CurrentPrice < ind.MAMid && ind.MAMid < ind.MALong:
			return &model.FactorScore{Name: "移動平均線", Points: -pts, Commentary: "下降配列"}
		}
		return nil
	}
}

// haTrend rewards a streak of at least minStreak same-colour Heikin-Ashi candles.
func haTrend(minStreak int, pts float64) Factor {
	return func(ind *model.Indicators, _ *model.Pattern) *model.FactorScore {
		switch {
		case ind.HATrend >= minStreak:
			return &model.FactorScore{Name: "平均足", Points: pts, Commentary: fmt.Sprintf("陽線%d本", ind.HATrend)}
		case ind.HATrend <= -minStreak:
			return &model.FactorScore{Name: "平均足", Points: -pts, Commentary: fmt.Sprintf("陰線%d本", -ind.HATrend)}
		}
		return nil
	}
}

// srProximity: near support is a bounce candidate, near resistance a ceiling.
func srProximity(tolerance, pts float64) Factor {
	return func(ind *model.Indicators, _ *model.Pattern) *model.FactorScore {
		if ind.Support <= 0 || ind.Resistance <= 0 || ind.Resistance == ind.Support {
			return nil
		}
		nearSupport := math.Abs(ind.CurrentPrice-ind.Support)/ind.Support < tolerance
		nearResistance := math.Abs(ind.CurrentPrice-ind.Resistance)/ind.Resistance < tolerance
		switch {
		case nearSupport && !nearResistance:
			return &model.FactorScore{Name: "支持線", Points: pts, Commentary: fmt.Sprintf("下値目処 %.0f", ind.Support)}
		case nearResistance && !nearSupport:
			return &model.FactorScore{Name: "抵抗線", Points: -pts, Commentary: fmt.Sprintf("上値目処 %.0f", ind.Resistance)}
		}
		return nil
	}
}

// volumeSpike amplifies the Heikin-Ashi direction on unusual volume.
func volumeSpike(minRatio, pts float64) Factor {
	return func(ind *model.Indicators, _ *model.Pattern) *model.FactorScore {
		if ind.VolumeRatio < minRatio || ind.HATrend == 0 {
			return nil
		}
		p := pts
		if ind.HATrend < 0 {
			p = -pts
		}
		return &model.FactorScore{Name: "出来高急増", Points: p, Commentary: fmt.Sprintf("%.1f倍", ind.VolumeRatio)}
	}
}

func candlePattern() Factor {
	return func(_ *model.Indicators, pat *model.Pattern) *model.FactorScore {
		if pat == nil {
			return nil
		}
		return &model.FactorScore{Name: "ローソク足", Points: pat.Points, Commentary: pat.Label}
	}
}
