package strategy

import (
	"strings"
	"testing"
	"time"

	"KabuScout/internal/model"
)

var toyota = model.Ticker{Symbol: "7203.T", Name: "トヨタ"}

func fixedEngine(p *Profile, g Guard) *Engine {
	e := NewEngine(p, g)
	e.Now = func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) }
	return e
}

func TestEvaluate_ValueOversoldRebound(t *testing.T) {
	ind := &model.Indicators{
		CurrentPrice: 2800,
		RSI:          30,
		MACDHist:     -1.0,
		PrevMACDHist: -2.0,
		Support:      2700,
		Resistance:   3200,
	}
	a := fixedEngine(ValueProfile(), Guard{}).Evaluate(toyota, ind, nil, time.Time{})
	if a.Score != 85 {
		t.Fatalf("expected score 85, got %.0f", a.Score)
	}
	if a.Judgement != model.StrongBuy {
		t.Errorf("expected STRONG_BUY, got %s", a.Judgement)
	}
	if len(a.Factors) != 2 {
		t.Errorf("expected 2 factors, got %d", len(a.Factors))
	}
	if a.LotCost != 280000 {
		t.Errorf("expected lot cost 280000, got %.0f", a.LotCost)
	}
}

func TestEvaluate_ValueMildSteps(t *testing.T) {
	e := fixedEngine(ValueProfile(), Guard{})

	a := e.Evaluate(toyota, &model.Indicators{CurrentPrice: 1000, RSI: 40, MACDHist: -0.5, PrevMACDHist: -0.8}, nil, time.Time{})
	if a.Score != 75 || a.Judgement != model.Buy {
		t.Errorf("RSI 40 + rebound: expected 75/BUY, got %.0f/%s", a.Score, a.Judgement)
	}

	a = e.Evaluate(toyota, &model.Indicators{CurrentPrice: 1000, RSI: 70, MACDHist: 0.5, PrevMACDHist: 0.2}, nil, time.Time{})
	if a.Score != 40 || a.Judgement != model.Watch {
		t.Errorf("RSI 70: expected 40/WATCH, got %.0f/%s", a.Score, a.Judgement)
	}
}

func TestEvaluate_ValueOverbought(t *testing.T) {
	ind := &model.Indicators{CurrentPrice: 5000, RSI: 90, MACDHist: 2, PrevMACDHist: 1}
	a := fixedEngine(ValueProfile(), Guard{}).Evaluate(toyota, ind, nil, time.Time{})
	if a.Judgement != model.Sell {
		t.Errorf("expected SELL, got %s (score %.0f)", a.Judgement, a.Score)
	}
	if len(a.Warnings) == 0 {
		t.Error("expected take-profit warning for RSI > 85")
	}
}

func TestMapJudgement_AllBoundaries(t *testing.T) {
	p := ValueProfile()
	tests := []struct {
		score float64
		want  model.Judgement
	}{
		{95, model.StrongBuy},
		{80, model.StrongBuy},
		{79, model.Buy},
		{70, model.Buy},
		{69, model.Watch},
		{50, model.Watch},
		{31, model.Watch},
		{30, model.Sell},
		{21, model.Sell},
		{20, model.StrongSell},
		{0, model.StrongSell},
	}
	for _, tt := range tests {
		if got := mapJudgement(tt.score, p); got != tt.want {
			t.Errorf("score %.0f: expected %s, got %s", tt.score, tt.want, got)
		}
	}
}

func TestEvaluate_SwingTrendFactors(t *testing.T) {
	ind := &model.Indicators{
		CurrentPrice: 1100,
		RSI:          50,
		MACDHist:     0.5,
		PrevMACDHist: -0.2,
		MACDCross:    1,
		MAMid:        1050,
		MALong:       1000,
		HATrend:      3,
		Support:      900,
		Resistance:   1300,
	}
	pat := &model.Pattern{Name: "morning_star", Label: "明けの明星", Signal: 1, Points: 15}
	a := fixedEngine(SwingProfile(), Guard{}).Evaluate(toyota, ind, pat, time.Time{})
	if a.Score != 95 {
		t.Fatalf("expected 95, got %.0f (%+v)", a.Score, a.Factors)
	}

	bear := &model.Indicators{
		CurrentPrice: 1290,
		RSI:          50,
		MACDCross:    -1,
		MAMid:        1300,
		MALong:       1350,
		HATrend:      -4,
		Support:      1000,
		Resistance:   1300,
	}
	b := fixedEngine(SwingProfile(), Guard{}).Evaluate(toyota, bear, nil, time.Time{})
	// -15 dead cross, -10 MA, -5 HA, -5 resistance
	if b.Score != 15 || b.Judgement != model.StrongSell {
		t.Errorf("expected 15/STRONG_SELL, got %.0f/%s", b.Score, b.Judgement)
	}
}

func TestEvaluate_DayTradeVolumeSpike(t *testing.T) {
	ind := &model.Indicators{CurrentPrice: 500, RSI: 28, HATrend: 4, VolumeRatio: 2.5, Support: 480, Resistance: 560}
	a := fixedEngine(DayTradeProfile(), Guard{}).Evaluate(toyota, ind, nil, time.Time{})
	// +20 RSI, +10 HA, +5 volume
	if a.Score != 85 {
		t.Errorf("expected 85, got %.0f", a.Score)
	}
}

func TestGuard_WithholdsBuys(t *testing.T) {
	oversold := func() *model.Indicators {
		return &model.Indicators{CurrentPrice: 1000, RSI: 30, MACDHist: -1, PrevMACDHist: -2, Support: 900, AvgVolume: 500000, VolumeSampled: true}
	}
	e := fixedEngine(ValueProfile(), Guard{EarningsDays: 3, MinVolume: 100000})

	a := e.Evaluate(toyota, oversold(), nil, time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC))
	if !a.Blocked || a.Judgement != model.Watch {
		t.Errorf("earnings in 2 days should withhold buy, got %s blocked=%v", a.Judgement, a.Blocked)
	}
	if a.Score != 85 {
		t.Errorf("guard must not change the score, got %.0f", a.Score)
	}

	a = e.Evaluate(toyota, oversold(), nil, time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC))
	if a.Blocked {
		t.Errorf("distant earnings should not block: %v", a.Warnings)
	}

	thin := oversold()
	thin.AvgVolume = 20000
	if a = e.Evaluate(toyota, thin, nil, time.Time{}); !a.Blocked {
		t.Error("expected thin volume to block")
	}

	knife := oversold()
	knife.Support = 1000
	knife.HATrend = -5
	if a = e.Evaluate(toyota, knife, nil, time.Time{}); !a.Blocked {
		t.Error("expected falling knife to block")
	}
}

func TestGuard_EarningsCountsTokyoCalendarDays(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	e := NewEngine(ValueProfile(), Guard{EarningsDays: 3})
	e.Now = func() time.Time { return time.Date(2026, 10, 19, 10, 0, 0, 0, jst) }
	ind := &model.Indicators{CurrentPrice: 1000, RSI: 30, MACDHist: -1, PrevMACDHist: -2}

	tests := []struct {
		earnings time.Time
		blocked  bool
	}{
		{time.Date(2026, 10, 19, 0, 0, 0, 0, jst), true},
		{time.Date(2026, 10, 22, 0, 0, 0, 0, jst), true},
		{time.Date(2026, 10, 23, 0, 0, 0, 0, jst), false},
		{time.Date(2026, 10, 18, 0, 0, 0, 0, jst), false},
	}
	for _, tt := range tests {
		a := e.Evaluate(toyota, ind, nil, tt.earnings)
		if a.Blocked != tt.blocked {
			t.Errorf("earnings %s: expected blocked=%v, got %v (%v)", tt.earnings.Format("01-02"), tt.blocked, a.Blocked, a.Warnings)
		}
	}

	// 23:30 UTC on the 18th is already the 19th in Tokyo.
	e.Now = func() time.Time { return time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC) }
	if a := e.Evaluate(toyota, ind, nil, time.Date(2026, 10, 23, 0, 0, 0, 0, jst)); a.Blocked {
		t.Errorf("earnings four Tokyo days away should not block: %v", a.Warnings)
	}
}

func TestGuard_ZeroVolumeWithholdsBuys(t *testing.T) {
	e := fixedEngine(ValueProfile(), Guard{MinVolume: 100000})
	ind := &model.Indicators{CurrentPrice: 1000, RSI: 30, MACDHist: -1, PrevMACDHist: -2, VolumeSampled: true}
	a := e.Evaluate(toyota, ind, nil, time.Time{})
	if !a.Blocked || a.Judgement != model.Watch {
		t.Errorf("untraded ticker should be withheld, got %s blocked=%v", a.Judgement, a.Blocked)
	}

	ind.VolumeSampled = false
	if a = e.Evaluate(toyota, ind, nil, time.Time{}); a.Blocked {
		t.Errorf("unknown volume should not block: %v", a.Warnings)
	}
}

func TestGuard_IgnoresSells(t *testing.T) {
	e := fixedEngine(ValueProfile(), Guard{EarningsDays: 3, MinVolume: 100000})
	ind := &model.Indicators{CurrentPrice: 1000, RSI: 80, AvgVolume: 10}
	a := e.Evaluate(toyota, ind, nil, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))
	if a.Blocked || a.Judgement != model.Sell {
		t.Errorf("expected unblocked SELL, got %s blocked=%v", a.Judgement, a.Blocked)
	}
}

func TestEvaluate_WeeklyRSIWarning(t *testing.T) {
	e := fixedEngine(SwingProfile(), Guard{})
	ind := &model.Indicators{CurrentPrice: 1200, RSI: 60, WeeklyRSI: 83}
	a := e.Evaluate(toyota, ind, nil, time.Time{})
	if len(a.Warnings) != 1 || !strings.Contains(a.Warnings[0], "週足RSI 83") {
		t.Errorf("expected weekly RSI warning, got %v", a.Warnings)
	}
}

func TestProfileFor(t *testing.T) {
	for _, m := range []model.Mode{model.ModeValue, model.ModeSwing, model.ModeDayTrade} {
		p, err := ProfileFor(m)
		if err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if p.Mode != m {
			t.Errorf("expected mode %s, got %s", m, p.Mode)
		}
	}
	if _, err := ProfileFor("scalp"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
